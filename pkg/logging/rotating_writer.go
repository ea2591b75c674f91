package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ArchiveDir is the directory, next to the log file, that rotated logs are moved into
const ArchiveDir = "old"

// RotatingWriter is a file writer that rotates on size and periodically checks
// that the open descriptor still refers to the configured path, so that an
// external logrotate or a manual move does not leave us writing to a ghost file.
type RotatingWriter struct {
	mu             sync.Mutex
	f              *os.File
	path           string
	maxSize        int64
	size           int64
	verifyInterval time.Duration

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewRotatingWriter opens path for appending. An existing file that is already
// over maxSize is archived before the first write.
func NewRotatingWriter(path string, maxSize int64, verifyInterval time.Duration) (*RotatingWriter, error) {
	w := &RotatingWriter{
		path:           path,
		maxSize:        maxSize,
		verifyInterval: verifyInterval,
		stopCh:         make(chan struct{}),
	}

	if err := w.openLocked(); err != nil {
		return nil, err
	}
	if w.maxSize > 0 && w.size >= w.maxSize {
		if err := w.rotateLocked(); err != nil {
			return nil, err
		}
	}

	if verifyInterval > 0 {
		w.wg.Add(1)
		go w.verifyLoop()
	}

	return w, nil
}

func (w *RotatingWriter) verifyLoop() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.verifyInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.mu.Lock()
			_ = w.verifyLocked()
			w.mu.Unlock()
		case <-w.stopCh:
			return
		}
	}
}

// Write implements io.Writer
func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.f == nil {
		if err := w.openLocked(); err != nil {
			return 0, err
		}
	}
	if w.maxSize > 0 && w.size+int64(len(p)) >= w.maxSize {
		if err := w.rotateLocked(); err != nil {
			return 0, err
		}
	}

	n, err := w.f.Write(p)
	w.size += int64(n)
	return n, err
}

// Close stops the background verifier and closes the file
func (w *RotatingWriter) Close() error {
	close(w.stopCh)
	w.wg.Wait()

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}

func (w *RotatingWriter) openLocked() error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}

	w.f = f
	w.size = fi.Size()
	return nil
}

// rotateLocked moves the current file to old/<basename>.YYYYMMDD-HHMMSS and starts a new one
func (w *RotatingWriter) rotateLocked() error {
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}

	archiveDir := filepath.Join(filepath.Dir(w.path), ArchiveDir)
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return fmt.Errorf("creating %s/ directory: %w", ArchiveDir, err)
	}
	archive := filepath.Join(archiveDir, fmt.Sprintf("%s.%s", filepath.Base(w.path), time.Now().Format("20060102-150405")))

	// Best effort, the file might have been removed already
	_ = os.Rename(w.path, archive)

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating new log file: %w", err)
	}
	w.f = f
	w.size = 0
	return nil
}

// verifyLocked reopens the path if it no longer refers to the open file
func (w *RotatingWriter) verifyLocked() error {
	if w.f == nil {
		return w.openLocked()
	}

	fiPath, err := os.Lstat(w.path)
	if err != nil {
		return w.reopenLocked()
	}
	fiOpen, err := w.f.Stat()
	if err != nil || !os.SameFile(fiOpen, fiPath) {
		return w.reopenLocked()
	}

	// Someone else may have appended or truncated
	w.size = fiOpen.Size()
	return nil
}

func (w *RotatingWriter) reopenLocked() error {
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	return w.openLocked()
}
