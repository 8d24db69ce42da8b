package server

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// SuggestionBox appends free-text feedback to a file, one entry per
// "---"-terminated block.
type SuggestionBox struct {
	mu   sync.Mutex
	path string
}

func NewSuggestionBox(path string) *SuggestionBox {
	return &SuggestionBox{path: path}
}

func (b *SuggestionBox) Add(s string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return fmt.Errorf("create suggestions dir: %w", err)
	}
	f, err := os.OpenFile(b.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open suggestions: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(s + "\n---\n"); err != nil {
		return fmt.Errorf("write suggestion: %w", err)
	}
	return nil
}
