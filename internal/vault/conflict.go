package vault

import (
	"fmt"
	"path/filepath"

	"github.com/ID-VerNe/secure-drop/internal/storage"
)

// ResolveConflict decides the final destination path when a file may
// already exist there. The exists func abstracts the storage backend so the
// decision stays pure.
//
// With no file at dest the path is returned unchanged for any strategy.
// Overwrite keeps the path (the caller replaces the content), reject fails
// with ErrConflict, and rename - the default - appends _1, _2, ... before
// the extension until a free path is found.
func ResolveConflict(dest, strategy string, exists func(string) bool) (string, error) {
	if !exists(dest) {
		return dest, nil
	}

	switch strategy {
	case storage.ConflictOverwrite:
		return dest, nil
	case storage.ConflictReject:
		return "", ErrConflict
	}

	ext := filepath.Ext(dest)
	base := dest[:len(dest)-len(ext)]
	for counter := 1; ; counter++ {
		candidate := fmt.Sprintf("%s_%d%s", base, counter, ext)
		if !exists(candidate) {
			return candidate, nil
		}
	}
}
