package iniconf

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vein-tools/veind/pkg/errdefs"
	"github.com/vein-tools/veind/pkg/log"
)

// Store serializes load->apply->write sequences per config path.
// Reads load fresh bytes without holding the path lock.
type Store struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore() *Store {
	return &Store{
		locks: make(map[string]*sync.Mutex),
	}
}

// UpdateResult reports a successful mutating write.
type UpdateResult struct {
	File *File

	// BackupPath is the immutable pre-write copy, named
	// <path>.backup.<unix-timestamp>. One is created per successful write
	// and never deleted by this service.
	BackupPath string
}

func (s *Store) pathLock(path string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[path]
	if !ok {
		l = &sync.Mutex{}
		s.locks[path] = l
	}
	return l
}

// Load reads and parses the config file at path.
func (s *Store) Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: config file %q", errdefs.ErrNotFound, filepath.Base(path))
		}
		return nil, err
	}

	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %q: %w", filepath.Base(path), err)
	}
	f.Path = path
	return f, nil
}

// Update merges the patch into the on-disk document under the path lock:
// reload, apply, back up the current bytes, then atomically swap in the
// merged content. The external process never observes a partial write,
// and the backup always exists before the mutation lands.
func (s *Store) Update(path string, patch Patch) (*UpdateResult, error) {
	// rejected before any file is touched, so a bad patch has no side effects
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	lock := s.pathLock(path)
	lock.Lock()
	defer lock.Unlock()

	current, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: config file %q", errdefs.ErrNotFound, filepath.Base(path))
		}
		return nil, err
	}

	f, err := Parse(current)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %q: %w", filepath.Base(path), err)
	}
	f.Path = path
	f.Apply(patch)

	backupPath := fmt.Sprintf("%s.backup.%d", path, time.Now().Unix())
	if err := os.WriteFile(backupPath, current, 0644); err != nil {
		return nil, fmt.Errorf("failed to back up %q: %w", filepath.Base(path), err)
	}

	if err := atomicWrite(path, f.Encode()); err != nil {
		return nil, err
	}

	log.Logger.Infow("updated config file",
		"path", path,
		"backup", backupPath,
		"patched_sections", len(patch),
	)
	return &UpdateResult{File: f, BackupPath: backupPath}, nil
}

// atomicWrite writes data to a temp file in the target directory and
// renames it into place.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op when the rename already succeeded
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
