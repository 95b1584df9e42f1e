package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// Rotator is an io.Writer that rotates the log file by size, keeping a fixed
// number of numbered backups (log -> log.1 -> log.2 ...).
type Rotator struct {
	Filename   string
	MaxSize    int64 // bytes
	MaxBackups int
	file       *os.File
	size       int64
	mu         sync.Mutex
}

// Setup points the standard logger at both stdout and a rotating file. If the
// file cannot be opened we fall back to stdout only; logging must never stop
// the process.
func Setup(filename string, maxSizeMB int64, maxBackups int) {
	rotator := &Rotator{
		Filename:   filename,
		MaxSize:    maxSizeMB * 1024 * 1024,
		MaxBackups: maxBackups,
	}

	if err := rotator.openExistingOrNew(); err != nil {
		log.Printf("Failed to open log file, using stdout only: %v", err)
		return
	}

	log.SetOutput(io.MultiWriter(os.Stdout, rotator))
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

func (r *Rotator) openExistingOrNew() error {
	info, err := os.Stat(r.Filename)
	if os.IsNotExist(err) {
		return r.openNew()
	}
	if err != nil {
		return err
	}

	f, err := os.OpenFile(r.Filename, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	r.file = f
	r.size = info.Size()
	return nil
}

func (r *Rotator) openNew() error {
	f, err := os.OpenFile(r.Filename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	r.file = f
	r.size = 0
	return nil
}

// Write satisfies io.Writer. It rotates before the write would exceed MaxSize.
func (r *Rotator) Write(p []byte) (n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		if err = r.openExistingOrNew(); err != nil {
			return 0, err
		}
	}

	if r.size+int64(len(p)) > r.MaxSize {
		if err := r.rotate(); err != nil {
			// Keep writing to the current file rather than lose the line.
			fmt.Fprintf(os.Stderr, "Log rotation failed: %v\n", err)
		}
	}

	n, err = r.file.Write(p)
	r.size += int64(n)
	return n, err
}

func (r *Rotator) rotate() error {
	if r.file != nil {
		r.file.Close()
	}

	for i := r.MaxBackups - 1; i >= 1; i-- {
		oldPath := fmt.Sprintf("%s.%d", r.Filename, i)
		if _, err := os.Stat(oldPath); os.IsNotExist(err) {
			continue
		}
		os.Rename(oldPath, fmt.Sprintf("%s.%d", r.Filename, i+1))
	}
	if _, err := os.Stat(r.Filename); err == nil {
		os.Rename(r.Filename, r.Filename+".1")
	}

	return r.openNew()
}
