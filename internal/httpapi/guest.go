// Package httpapi provides the guest and admin HTTP endpoints of secure-drop.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ID-VerNe/secure-drop/internal/auth"
	"github.com/ID-VerNe/secure-drop/internal/metrics"
	"github.com/ID-VerNe/secure-drop/internal/storage"
	"github.com/ID-VerNe/secure-drop/internal/token"
	"github.com/ID-VerNe/secure-drop/internal/vault"
)

// Audit actions recorded in the access log.
const (
	actionLogin          = "guest_login"
	actionLoginRejected  = "guest_login_rejected"
	actionListFiles      = "list_files"
	actionUpload         = "upload"
	actionUploadRejected = "upload_rejected"
	actionDownload       = "download"
	actionDownloadDenied = "download_rejected"
)

// AuditStore is the append-only access log sink.
type AuditStore interface {
	AppendAccessLog(ctx context.Context, entry *storage.AccessLog) error
}

// GuestHandler serves the guest-facing endpoints: token login and the file
// exchange operations constrained by the token's policy.
type GuestHandler struct {
	validator *token.Validator
	tokens    *token.Service
	guard     *vault.Guard
	files     vault.FileStore
	signer    *auth.Signer
	audit     AuditStore
	logger    *slog.Logger
}

// NewGuestHandler creates a guest handler.
func NewGuestHandler(validator *token.Validator, tokens *token.Service, guard *vault.Guard, files vault.FileStore, signer *auth.Signer, audit AuditStore, logger *slog.Logger) *GuestHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GuestHandler{
		validator: validator,
		tokens:    tokens,
		guard:     guard,
		files:     files,
		signer:    signer,
		audit:     audit,
		logger:    logger,
	}
}

// GuestLoginRequest is the body for POST /api/guest/login.
type GuestLoginRequest struct {
	TokenString string `json:"token_string"`
}

// GuestLoginResponse returns the session credential and the guest-facing
// policy.
type GuestLoginResponse struct {
	SessionToken string              `json:"session_token"`
	Policy       GuestPolicyResponse `json:"policy"`
}

// HandleLogin exchanges a token string for a session credential.
// Each successful login consumes one usage unit; file operations do not.
// POST /api/guest/login
func (h *GuestHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req GuestLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TokenString == "" {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "token_string required")
		return
	}

	policy, err := h.validator.Validate(r.Context(), req.TokenString)
	if err != nil {
		h.rejectLogin(w, r, 0, err)
		return
	}

	if _, err := h.tokens.ConsumeUsage(r.Context(), policy.ID); err != nil {
		h.rejectLogin(w, r, policy.ID, err)
		return
	}

	sessionToken, err := h.signer.IssueSession(policy.TokenString)
	if err != nil {
		h.logger.Error("failed to issue session", "error", err)
		WriteError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
		return
	}

	h.record(r, policy.ID, actionLogin, "")
	h.logger.Info("guest login", "token", token.Mask(req.TokenString), "remote_addr", r.RemoteAddr)

	WriteJSON(w, http.StatusOK, GuestLoginResponse{
		SessionToken: sessionToken,
		Policy:       guestPolicyResponse(policy),
	})
}

// rejectLogin maps a validation error onto the response and the audit log.
func (h *GuestHandler) rejectLogin(w http.ResponseWriter, r *http.Request, tokenID int64, err error) {
	h.record(r, tokenID, actionLoginRejected, err.Error())

	switch {
	case errors.Is(err, token.ErrNotFound):
		WriteError(w, http.StatusNotFound, ErrCodeNotFound, "invalid token")
	case errors.Is(err, token.ErrExpired):
		WriteError(w, http.StatusForbidden, ErrCodeForbidden, "token expired")
	case errors.Is(err, token.ErrExhausted):
		WriteError(w, http.StatusForbidden, ErrCodeForbidden, "token exhausted")
	case errors.Is(err, token.ErrRevoked):
		WriteError(w, http.StatusForbidden, ErrCodeForbidden, "token revoked")
	case errors.Is(err, token.ErrForbidden):
		WriteError(w, http.StatusForbidden, ErrCodeForbidden, "token not usable")
	default:
		h.logger.Error("login validation failed", "error", err)
		WriteError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
	}
}

// HandleListFiles returns the filenames available for download under the
// session's policy. Names only, no paths or metadata.
// GET /api/guest/files
func (h *GuestHandler) HandleListFiles(w http.ResponseWriter, r *http.Request) {
	policy := auth.PolicyFromContext(r.Context())
	if policy == nil {
		WriteError(w, http.StatusUnauthorized, ErrCodeInvalidCredentials, "authentication required")
		return
	}

	names, err := h.guard.ListDownloadable(policy)
	if err != nil {
		h.logger.Error("failed to list downloadable files", "token_id", policy.ID, "error", err)
		WriteError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
		return
	}

	h.record(r, policy.ID, actionListFiles, "")
	WriteJSON(w, http.StatusOK, names)
}

// UploadResponse confirms an accepted upload with the stored filename,
// which may differ from the submitted one after conflict resolution.
type UploadResponse struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
}

// HandleUpload accepts one multipart file upload, authorizes it against the
// policy and writes it through the file store.
// POST /api/guest/upload
func (h *GuestHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	policy := auth.PolicyFromContext(r.Context())
	if policy == nil {
		WriteError(w, http.StatusUnauthorized, ErrCodeInvalidCredentials, "authentication required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		// MaxBytesReader aborts the multipart parse when the raw body
		// exceeds the configured cap.
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			WriteError(w, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "request body too large")
			return
		}
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "multipart file field required")
		return
	}
	defer file.Close() //nolint:errcheck

	filename := path.Base(header.Filename)

	finalPath, err := h.guard.AuthorizeUpload(policy, filename, header.Size)
	if err != nil {
		h.rejectUpload(w, r, policy.ID, filename, err)
		return
	}

	reader := vault.ThrottleReader(r.Context(), file, policy.UploadBandwidthLimitKbps)
	written, err := h.files.Save(finalPath, reader)
	if err != nil {
		h.logger.Error("failed to store upload", "token_id", policy.ID, "error", err)
		WriteError(w, http.StatusInternalServerError, ErrCodeInternalError, "failed to store file")
		return
	}

	storedName := path.Base(finalPath)
	h.record(r, policy.ID, actionUpload, fmt.Sprintf("%s (%d bytes)", storedName, written))
	metrics.RecordTransfer("upload", written)
	h.logger.Info("file uploaded", "token_id", policy.ID, "filename", storedName, "bytes", written)

	WriteJSON(w, http.StatusOK, UploadResponse{
		Message:  "file uploaded",
		Filename: storedName,
	})
}

// rejectUpload maps a guard rejection onto the response and the audit log.
// Path escapes come back as a plain 403 so the response leaks nothing about
// the filesystem.
func (h *GuestHandler) rejectUpload(w http.ResponseWriter, r *http.Request, tokenID int64, filename string, err error) {
	h.record(r, tokenID, actionUploadRejected, fmt.Sprintf("%s: %v", filename, err))

	switch {
	case errors.Is(err, vault.ErrUploadNotAllowed), errors.Is(err, vault.ErrPathEscape):
		WriteError(w, http.StatusForbidden, ErrCodeForbidden, "upload not allowed")
	case errors.Is(err, vault.ErrFileTooLarge):
		WriteError(w, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "file exceeds size limit")
	case errors.Is(err, vault.ErrFileType):
		WriteError(w, http.StatusUnsupportedMediaType, ErrCodeUnsupportedMediaType, "file type not allowed")
	case errors.Is(err, vault.ErrConflict):
		WriteError(w, http.StatusConflict, ErrCodeConflict, "file already exists")
	default:
		h.logger.Error("upload authorization failed", "token_id", tokenID, "error", err)
		WriteError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
	}
}

// HandleDownload streams one file permitted by the policy. Range requests
// are honored only when the policy allows resumable downloads and no
// bandwidth limit applies.
// GET /api/guest/download/{filename}
func (h *GuestHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	policy := auth.PolicyFromContext(r.Context())
	if policy == nil {
		WriteError(w, http.StatusUnauthorized, ErrCodeInvalidCredentials, "authentication required")
		return
	}

	filename := path.Base(chi.URLParam(r, "filename"))

	absPath, err := h.guard.AuthorizeDownload(policy, filename)
	if err != nil {
		h.rejectDownload(w, r, policy.ID, filename, err)
		return
	}

	f, err := os.Open(absPath)
	if err != nil {
		h.logger.Error("failed to open download", "token_id", policy.ID, "error", err)
		WriteError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
		return
	}
	defer f.Close() //nolint:errcheck

	info, err := f.Stat()
	if err != nil {
		h.logger.Error("failed to stat download", "token_id", policy.ID, "error", err)
		WriteError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
		return
	}

	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Type", "application/octet-stream")

	if policy.AllowResumableDownload && policy.DownloadBandwidthLimitKbps <= 0 {
		http.ServeContent(w, r, filename, info.ModTime(), f)
	} else {
		// Throttled or non-resumable: stream the whole file ourselves.
		w.Header().Set("Accept-Ranges", "none")
		w.Header().Set("Content-Length", fmt.Sprintf("%d", info.Size()))
		reader := vault.ThrottleReader(r.Context(), f, policy.DownloadBandwidthLimitKbps)
		if _, err := io.Copy(w, reader); err != nil {
			// Response already started; nothing to send the client.
			h.logger.Warn("download stream interrupted", "token_id", policy.ID, "error", err)
		}
	}

	h.record(r, policy.ID, actionDownload, filename)
	metrics.RecordTransfer("download", info.Size())
	h.logger.Info("file downloaded", "token_id", policy.ID, "filename", filename)
}

// rejectDownload maps a guard rejection onto the response and the audit log.
func (h *GuestHandler) rejectDownload(w http.ResponseWriter, r *http.Request, tokenID int64, filename string, err error) {
	h.record(r, tokenID, actionDownloadDenied, fmt.Sprintf("%s: %v", filename, err))

	switch {
	case errors.Is(err, vault.ErrDownloadNotAllowed), errors.Is(err, vault.ErrPathEscape):
		WriteError(w, http.StatusForbidden, ErrCodeForbidden, "download not allowed")
	case errors.Is(err, vault.ErrNotFound):
		WriteError(w, http.StatusNotFound, ErrCodeNotFound, "file not found")
	default:
		h.logger.Error("download authorization failed", "token_id", tokenID, "error", err)
		WriteError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
	}
}

// record appends an access log entry. Audit failures are logged but never
// fail the guest's request.
func (h *GuestHandler) record(r *http.Request, tokenID int64, action, details string) {
	entry := &storage.AccessLog{
		TokenID:   tokenID,
		IPAddress: remoteIP(r),
		Timestamp: time.Now().UTC(),
		Action:    action,
		Details:   details,
	}
	if err := h.audit.AppendAccessLog(r.Context(), entry); err != nil {
		h.logger.Error("failed to append access log", "action", action, "error", err)
	}
}

// remoteIP strips the port from the request's remote address.
func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
