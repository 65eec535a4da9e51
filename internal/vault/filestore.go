package vault

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// FileStore is the storage capability the guard and handlers depend on.
// LocalStore is the only implementation today; a remote object store can
// slot in behind the same interface.
type FileStore interface {
	// ResolvePath confines rel to the store's root and returns the
	// absolute path. Fails with ErrPathEscape when rel leaves the root.
	ResolvePath(rel string) (string, error)

	// Exists reports whether a file or directory exists at rel.
	Exists(rel string) bool

	// Save writes r to rel, creating parent directories as needed, and
	// returns the number of bytes written.
	Save(rel string, r io.Reader) (int64, error)

	// Open opens the file at rel for reading.
	Open(rel string) (io.ReadSeekCloser, error)

	// ListFiles returns the names of regular files directly inside relDir,
	// without recursing.
	ListFiles(relDir string) ([]string, error)

	// ListDirs returns the names of directories directly under the root.
	ListDirs() ([]string, error)
}

// LocalStore stores files on the local filesystem under a single root
// directory. Every path it touches goes through Confine first.
type LocalStore struct {
	root string
}

// NewLocalStore creates the root directory if needed and returns a store
// rooted there.
func NewLocalStore(root string) (*LocalStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &LocalStore{root: abs}, nil
}

// Root returns the absolute storage root.
func (l *LocalStore) Root() string {
	return l.root
}

// ResolvePath confines rel to the store root.
func (l *LocalStore) ResolvePath(rel string) (string, error) {
	return Confine(l.root, rel)
}

// Exists reports whether anything exists at rel. Paths that escape the root
// are reported as absent.
func (l *LocalStore) Exists(rel string) bool {
	abs, err := l.ResolvePath(rel)
	if err != nil {
		return false
	}
	_, err = os.Stat(abs)
	return err == nil
}

// Save writes r to rel inside the root, creating parent directories.
func (l *LocalStore) Save(rel string, r io.Reader) (int64, error) {
	abs, err := l.ResolvePath(rel)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create upload directory: %w", err)
	}

	f, err := os.Create(abs)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	n, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		// Remove the partial write so a failed upload leaves no trace.
		_ = os.Remove(abs) //nolint:errcheck
		return 0, fmt.Errorf("failed to write file: %w", err)
	}

	return n, nil
}

// Open opens rel for reading.
func (l *LocalStore) Open(rel string) (io.ReadSeekCloser, error) {
	abs, err := l.ResolvePath(rel)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

// ListFiles returns the regular files directly inside relDir, sorted by
// name. A missing or non-directory path yields an empty list, not an error:
// guests see "no files", never filesystem detail.
func (l *LocalStore) ListFiles(relDir string) ([]string, error) {
	abs, err := l.ResolvePath(relDir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// ListDirs returns the directories directly under the storage root.
func (l *LocalStore) ListDirs() ([]string, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage root: %w", err)
	}

	dirs := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}
