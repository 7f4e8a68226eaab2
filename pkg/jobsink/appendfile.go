package jobsink

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// AppendFile appends whole lines to a file. Each call opens, writes and closes
// the file; the mutex keeps lines from interleaving between workers.
type AppendFile struct {
	path string
	mu   sync.Mutex
}

// NewAppendFile returns an AppendFile for path. Nothing is created until the
// first write.
func NewAppendFile(path string) *AppendFile {
	return &AppendFile{path: path}
}

// Path returns the file path.
func (f *AppendFile) Path() string { return f.path }

// AppendLine writes line followed by a newline.
func (f *AppendFile) AppendLine(line []byte) error {
	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, '\n')

	f.mu.Lock()
	defer f.mu.Unlock()

	if dir := filepath.Dir(f.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", f.path, err)
		}
	}
	fh, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s for append: %w", f.path, err)
	}
	if _, err := fh.Write(buf); err != nil {
		_ = fh.Close()
		return fmt.Errorf("failed to append to %s: %w", f.path, err)
	}
	if err := fh.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", f.path, err)
	}
	return nil
}
