package parser

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const maxArchiveMember = 200 << 20

var zipMagic = []byte("PK\x03\x04")

// decode unwraps zip exports and converts UTF-16 or BOM-prefixed UTF-8 text
// into plain UTF-8.
func decode(raw []byte) ([]byte, error) {
	if bytes.HasPrefix(raw, zipMagic) {
		member, err := unzipChat(raw)
		if err != nil {
			return nil, err
		}
		raw = member
	}
	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), raw)
	if err != nil {
		return nil, fmt.Errorf("decode text: %w", err)
	}
	return out, nil
}

// unzipChat returns the chat member of an export archive: _chat.txt first,
// then any .txt, then any .json.
func unzipChat(raw []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	var pick *zip.File
	rank := 0
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := strings.ToLower(path.Base(f.Name))
		r := 0
		switch {
		case name == "_chat.txt":
			r = 3
		case strings.HasSuffix(name, ".txt"):
			r = 2
		case strings.HasSuffix(name, ".json"):
			r = 1
		}
		if r > rank {
			pick, rank = f, r
		}
	}
	if pick == nil {
		return nil, fmt.Errorf("archive has no chat file")
	}

	rc, err := pick.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", pick.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxArchiveMember))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", pick.Name, err)
	}
	return data, nil
}
