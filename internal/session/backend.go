package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Entries are the persisted values. They are always written and cleared together.
type Entries struct {
	Token  string `json:"token,omitempty"`
	Role   string `json:"role,omitempty"`
	UserID string `json:"user_id,omitempty"`
}

// Empty reports whether nothing is stored.
func (e Entries) Empty() bool {
	return e.Token == "" && e.Role == "" && e.UserID == ""
}

// Backend is durable client-side storage for the session entries.
type Backend interface {
	Load() (Entries, error)
	Save(Entries) error
	Clear() error
}

// ErrCorrupted is returned by FileBackend.Load when the file is not valid JSON.
var ErrCorrupted = errors.New("session file is corrupted")

// FileBackend keeps entries in a JSON file readable only by the owner.
type FileBackend struct {
	Path string
}

// NewFileBackend returns a backend writing to path.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{Path: path}
}

func (b *FileBackend) Load() (Entries, error) {
	var entries Entries

	data, err := os.ReadFile(b.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return entries, nil
		}
		return entries, fmt.Errorf("reading session file %q: %w", b.Path, err)
	}

	if len(data) == 0 {
		return entries, nil
	}

	if err := json.Unmarshal(data, &entries); err != nil {
		return Entries{}, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}

	return entries, nil
}

// Save replaces the file atomically so a crash never leaves a partial session behind.
func (b *FileBackend) Save(entries Entries) error {
	dir := filepath.Dir(b.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating session dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return fmt.Errorf("creating temp session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding session: %w", err)
	}

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), b.Path)
}

func (b *FileBackend) Clear() error {
	if err := os.Remove(b.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session file: %w", err)
	}
	return nil
}

// MemoryBackend keeps entries in memory.
type MemoryBackend struct {
	mu      sync.Mutex
	entries Entries
}

func (b *MemoryBackend) Load() (Entries, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.entries, nil
}

func (b *MemoryBackend) Save(entries Entries) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = entries
	return nil
}

func (b *MemoryBackend) Clear() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = Entries{}
	return nil
}
