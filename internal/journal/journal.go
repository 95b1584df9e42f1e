// Package journal appends closed trades to a JSON-lines audit file. The file
// is write-only from the process's point of view; nothing is ever read back.
package journal

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"

	"gapwatch/internal/models"
)

// Writer appends one JSON object per closed trade. Safe for concurrent use.
type Writer struct {
	mu   sync.Mutex
	file *os.File
}

// NewWriter opens (or creates) the journal file in append mode.
func NewWriter(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open trade journal %s: %w", path, err)
	}
	return &Writer{file: f}, nil
}

// Record writes one trade as a single line.
func (w *Writer) Record(trade models.ClosedTrade) error {
	data, err := json.Marshal(trade)
	if err != nil {
		return fmt.Errorf("marshal trade record: %w", err)
	}
	data = append(data, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.file.Write(data); err != nil {
		return fmt.Errorf("write trade record: %w", err)
	}
	return nil
}

// Close flushes and releases the file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

// MustWriter is NewWriter for startup paths where a dead journal means the
// process should not run.
func MustWriter(path string) *Writer {
	w, err := NewWriter(path)
	if err != nil {
		log.Fatalf("CRITICAL: %v", err)
	}
	return w
}
