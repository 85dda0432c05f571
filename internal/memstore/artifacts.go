package memstore

import (
	"context"
	"sync"

	"github.com/cheercheung/chatrecap-sub001/internal/job"
)

// Artifacts is an in-memory artifact store.
type Artifacts struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewArtifacts() *Artifacts {
	return &Artifacts{data: make(map[string][]byte)}
}

// Key is the storage key for an artifact.
func Key(fileID string, kind job.ArtifactKind) string {
	return fileID + "/" + string(kind)
}

func (a *Artifacts) Put(_ context.Context, fileID string, kind job.ArtifactKind, content []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	k := Key(fileID, kind)
	a.data[k] = append([]byte(nil), content...)
	return k, nil
}

// Get returns nil content when the artifact does not exist.
func (a *Artifacts) Get(_ context.Context, fileID string, kind job.ArtifactKind) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	v, ok := a.data[Key(fileID, kind)]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (a *Artifacts) Delete(_ context.Context, fileID string, kind job.ArtifactKind) error {
	a.mu.Lock()
	delete(a.data, Key(fileID, kind))
	a.mu.Unlock()
	return nil
}
