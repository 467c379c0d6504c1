// Package transcript persists finished call transcripts.
package transcript

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultName is the key used when no caller name was captured.
const DefaultName = "Unknown Client"

// Store accepts a finished transcript keyed by the caller's name. Save is
// called exactly once per call, after both relay loops have terminated.
type Store interface {
	Save(name, transcript string) error
}

// FileStore writes each transcript to a flat text file in Dir, named
// after the caller with spaces replaced by underscores.
type FileStore struct {
	Dir string
}

// NewFileStore creates a store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("transcript: failed to create directory: %w", err)
	}
	return &FileStore{Dir: dir}, nil
}

// Save writes the transcript, overwriting any previous call from the same
// caller name.
func (s *FileStore) Save(name, transcript string) error {
	if name == "" {
		name = DefaultName
	}

	path := filepath.Join(s.Dir, Filename(name))
	if err := os.WriteFile(path, []byte(transcript), 0644); err != nil {
		return fmt.Errorf("transcript: failed to write %s: %w", path, err)
	}
	return nil
}

// Filename derives the storage key for a caller name.
func Filename(name string) string {
	return strings.ReplaceAll(name, " ", "_") + "_loan_conversation.txt"
}
