package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// LedgerEntry records one consumption.
type LedgerEntry struct {
	ID     string
	UserID string
	Amount int
	FileID string
	Reason string
	At     time.Time
}

// Ledger is an in-memory credit ledger. An unlimited ledger approves every
// request and still records consumption.
type Ledger struct {
	mu        sync.Mutex
	balances  map[string]int
	entries   []LedgerEntry
	unlimited bool
}

func NewLedger(balances map[string]int) *Ledger {
	b := make(map[string]int, len(balances))
	for k, v := range balances {
		b[k] = v
	}
	return &Ledger{balances: b}
}

func NewUnlimitedLedger() *Ledger {
	return &Ledger{balances: make(map[string]int), unlimited: true}
}

func (l *Ledger) SetBalance(userID string, amount int) {
	l.mu.Lock()
	l.balances[userID] = amount
	l.mu.Unlock()
}

func (l *Ledger) Balance(userID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[userID]
}

func (l *Ledger) HasSufficientCredits(_ context.Context, userID string, amount int) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.unlimited || l.balances[userID] >= amount, nil
}

func (l *Ledger) Consume(_ context.Context, userID string, amount int, fileID, reason string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.unlimited {
		if l.balances[userID] < amount {
			return false, nil
		}
		l.balances[userID] -= amount
	}
	l.entries = append(l.entries, LedgerEntry{
		ID:     uuid.NewString(),
		UserID: userID,
		Amount: amount,
		FileID: fileID,
		Reason: reason,
		At:     time.Now().UTC(),
	})
	return true, nil
}

// Entries returns a copy of every recorded consumption.
func (l *Ledger) Entries() []LedgerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]LedgerEntry(nil), l.entries...)
}
