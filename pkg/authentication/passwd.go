package authentication

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/mmcdole/cftpd/pkg/logging"
)

// PasswdFile authenticates against a file of "user:hash" lines.
// Blank lines and lines starting with # are ignored; fields after the hash are ignored.
// The file is re-read when its size or modification time changes.
type PasswdFile struct {
	fs    afero.Fs
	path  string
	table *MemoryProvider

	mu      sync.RWMutex
	modTime time.Time
	size    int64
}

// NewPasswdFile loads path from fs. A nil verifier means NewMultiHashVerifier.
func NewPasswdFile(fs afero.Fs, path string, verifier PasswordVerifier) (*PasswdFile, error) {
	if path == "" {
		return nil, errors.New("passwd file path is required")
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}

	p := &PasswdFile{fs: fs, path: path, table: NewMemoryProvider(nil, verifier)}
	if err := p.reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Authenticate implements Provider
func (p *PasswdFile) Authenticate(user, password string) error {
	p.refresh()
	return p.table.Authenticate(user, password)
}

// Len returns the number of users currently loaded
func (p *PasswdFile) Len() int {
	return p.table.Len()
}

// refresh reloads the file if it changed. Failures keep the last good table.
func (p *PasswdFile) refresh() {
	fi, err := p.fs.Stat(p.path)
	if err != nil {
		logging.App.Warn("Cannot stat passwd file, using cached entries", "path", p.path, "error", err)
		return
	}

	p.mu.RLock()
	unchanged := fi.ModTime().Equal(p.modTime) && fi.Size() == p.size
	p.mu.RUnlock()
	if unchanged {
		return
	}

	if err := p.reload(); err != nil {
		logging.App.Warn("Failed to reload passwd file, using cached entries", "path", p.path, "error", err)
	}
}

func (p *PasswdFile) reload() error {
	f, err := p.fs.Open(p.path)
	if err != nil {
		return fmt.Errorf("opening passwd file: %w", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat passwd file: %w", err)
	}

	hashes := make(map[string]string)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		user, rest, ok := strings.Cut(line, ":")
		if !ok || user == "" {
			return fmt.Errorf("passwd file %s line %d: expected user:hash", p.path, lineNo)
		}
		hash, _, _ := strings.Cut(rest, ":")
		if hash == "" {
			return fmt.Errorf("passwd file %s line %d: empty hash for %q", p.path, lineNo, user)
		}
		hashes[user] = hash
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading passwd file: %w", err)
	}

	p.mu.Lock()
	p.table.Replace(hashes)
	p.modTime = fi.ModTime()
	p.size = fi.Size()
	p.mu.Unlock()

	logging.App.Debug("Loaded passwd file", "path", p.path, "users", len(hashes))
	return nil
}
