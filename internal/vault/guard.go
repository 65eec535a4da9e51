package vault

import (
	"os"
	"path"
	"strings"

	"github.com/ID-VerNe/secure-drop/internal/storage"
)

// Guard authorizes single upload and download requests against a token's
// policy. It decides paths and names; the physical read or write is the
// caller's job.
type Guard struct {
	files FileStore
}

// NewGuard creates a Guard over the given file store.
func NewGuard(files FileStore) *Guard {
	return &Guard{files: files}
}

// AuthorizeUpload validates an upload against the policy and returns the
// finalized relative destination path for the caller to write. Checks run
// in order and fail fast: upload flag, size limit, extension allow-list,
// path confinement, conflict strategy.
func (g *Guard) AuthorizeUpload(policy *storage.Token, filename string, sizeBytes int64) (string, error) {
	if !policy.AllowUpload {
		return "", ErrUploadNotAllowed
	}

	if policy.MaxFileSizeMB != nil && sizeBytes > *policy.MaxFileSizeMB*1024*1024 {
		return "", ErrFileTooLarge
	}

	if policy.AllowedFileTypes != "" && !extensionAllowed(filename, policy.AllowedFileTypes) {
		return "", ErrFileType
	}

	dest := path.Join(policy.UploadPath, filename)
	if _, err := g.files.ResolvePath(dest); err != nil {
		return "", err
	}

	final, err := ResolveConflict(dest, policy.FilenameConflictStrategy, g.files.Exists)
	if err != nil {
		return "", err
	}

	return final, nil
}

// AuthorizeDownload validates a download against the policy and returns the
// absolute path for the caller to stream. The target must resolve inside
// the policy's downloadable directory and be a regular file.
func (g *Guard) AuthorizeDownload(policy *storage.Token, filename string) (string, error) {
	if !policy.AllowDownload {
		return "", ErrDownloadNotAllowed
	}
	if policy.DownloadablePath == "" {
		return "", ErrDownloadNotAllowed
	}

	abs, err := g.files.ResolvePath(path.Join(policy.DownloadablePath, filename))
	if err != nil {
		return "", err
	}

	info, err := os.Stat(abs)
	if err != nil || !info.Mode().IsRegular() {
		return "", ErrNotFound
	}

	return abs, nil
}

// ListDownloadable enumerates the filenames a guest may download: regular
// files directly inside the policy's downloadable directory. A policy
// without download access yields an empty list.
func (g *Guard) ListDownloadable(policy *storage.Token) ([]string, error) {
	if !policy.AllowDownload || policy.DownloadablePath == "" {
		return []string{}, nil
	}
	return g.files.ListFiles(policy.DownloadablePath)
}

// extensionAllowed checks the filename's extension against a comma-separated
// allow-list, case-insensitively. Entries may be written with or without the
// leading dot.
func extensionAllowed(filename, allowList string) bool {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		return false
	}
	for _, entry := range strings.Split(allowList, ",") {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry == "" {
			continue
		}
		if !strings.HasPrefix(entry, ".") {
			entry = "." + entry
		}
		if entry == ext {
			return true
		}
	}
	return false
}
