package vault

import "errors"

// Errors for file exchange authorization failures. The HTTP layer maps
// these to status codes: escape and policy rejections are always 403 so the
// response never leaks filesystem structure.
var (
	// ErrPathEscape indicates a path resolved outside its permitted root.
	ErrPathEscape = errors.New("vault: path escapes root")

	// ErrUploadNotAllowed indicates the policy forbids uploads.
	ErrUploadNotAllowed = errors.New("vault: upload not allowed")

	// ErrDownloadNotAllowed indicates the policy forbids downloads.
	ErrDownloadNotAllowed = errors.New("vault: download not allowed")

	// ErrConflict indicates the destination exists and the policy's
	// conflict strategy is reject.
	ErrConflict = errors.New("vault: destination already exists")

	// ErrFileTooLarge indicates the upload exceeds the policy's size limit.
	ErrFileTooLarge = errors.New("vault: file exceeds size limit")

	// ErrFileType indicates the upload's extension is not in the policy's
	// allow-list.
	ErrFileType = errors.New("vault: file type not allowed")

	// ErrNotFound indicates the download target is not a regular file.
	ErrNotFound = errors.New("vault: file not found")
)
