package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ID-VerNe/secure-drop/internal/auth"
	"github.com/ID-VerNe/secure-drop/internal/storage"
	"github.com/ID-VerNe/secure-drop/internal/token"
	"github.com/ID-VerNe/secure-drop/internal/vault"
)

// Pagination bounds for admin listings.
const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// AdminStore is the persistence surface the admin endpoints need beyond the
// token lifecycle service.
type AdminStore interface {
	GetAdminByUsername(ctx context.Context, username string) (*storage.Admin, error)
	ListAccessLogs(ctx context.Context, offset, limit int) ([]*storage.AccessLog, error)
	CountAccessLogs(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}

// AdminHandler serves administrator login and token management endpoints.
type AdminHandler struct {
	store    AdminStore
	tokens   *token.Service
	files    vault.FileStore
	signer   *auth.Signer
	logger   *slog.Logger
	logLevel *slog.LevelVar
}

// NewAdminHandler creates an admin handler.
func NewAdminHandler(store AdminStore, tokens *token.Service, files vault.FileStore, signer *auth.Signer, logLevel *slog.LevelVar, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if logLevel == nil {
		logLevel = new(slog.LevelVar)
	}
	return &AdminHandler{
		store:    store,
		tokens:   tokens,
		files:    files,
		signer:   signer,
		logger:   logger,
		logLevel: logLevel,
	}
}

// AdminLoginRequest is the body for POST /api/auth/admin/login.
type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AdminLoginResponse carries the signed admin credential.
type AdminLoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// HandleLogin verifies an admin account and issues an admin credential.
// Unknown usernames and wrong passwords produce the same response.
// POST /api/auth/admin/login
func (h *AdminHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req AdminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "username and password required")
		return
	}

	admin, err := h.store.GetAdminByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.logger.Warn("admin login failed", "username", req.Username, "remote_addr", r.RemoteAddr)
			WriteError(w, http.StatusUnauthorized, ErrCodeInvalidCredentials, "invalid username or password")
			return
		}
		h.logger.Error("admin lookup failed", "error", err)
		WriteError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
		return
	}

	if err := storage.VerifyPassword(req.Password, admin.HashedPassword); err != nil {
		h.logger.Warn("admin login failed", "username", req.Username, "remote_addr", r.RemoteAddr)
		WriteError(w, http.StatusUnauthorized, ErrCodeInvalidCredentials, "invalid username or password")
		return
	}

	credential, err := h.signer.IssueAdmin(admin.Username)
	if err != nil {
		h.logger.Error("failed to issue admin credential", "error", err)
		WriteError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
		return
	}

	h.logger.Info("admin login", "username", admin.Username)
	WriteJSON(w, http.StatusOK, AdminLoginResponse{
		AccessToken: credential,
		TokenType:   "bearer",
	})
}

// HandleCreateToken issues a new access token.
// POST /api/admin/tokens
func (h *AdminHandler) HandleCreateToken(w http.ResponseWriter, r *http.Request) {
	var req TokenCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid JSON")
		return
	}

	created, err := h.tokens.Create(r.Context(), req.toToken())
	if err != nil {
		h.logger.Error("failed to create token", "admin", auth.AdminFromContext(r.Context()), "error", err)
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		return
	}

	WriteJSON(w, http.StatusCreated, tokenResponse(created))
}

// HandleListTokens returns a page of tokens.
// GET /api/admin/tokens?page=&limit=
func (h *AdminHandler) HandleListTokens(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)

	items, total, err := h.tokens.List(r.Context(), offset, limit)
	if err != nil {
		h.logger.Error("failed to list tokens", "error", err)
		WriteError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
		return
	}

	responses := make([]TokenResponse, len(items))
	for i, t := range items {
		responses[i] = tokenResponse(t)
	}

	WriteJSON(w, http.StatusOK, PaginatedResponse{Total: total, Items: responses})
}

// HandleGetToken returns one token record.
// GET /api/admin/tokens/{id}
func (h *AdminHandler) HandleGetToken(w http.ResponseWriter, r *http.Request) {
	id, ok := tokenID(w, r)
	if !ok {
		return
	}

	t, err := h.tokens.Get(r.Context(), id)
	if err != nil {
		h.tokenError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, tokenResponse(t))
}

// HandleUpdateToken applies a partial policy update.
// PUT /api/admin/tokens/{id}
func (h *AdminHandler) HandleUpdateToken(w http.ResponseWriter, r *http.Request) {
	id, ok := tokenID(w, r)
	if !ok {
		return
	}

	var req TokenUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid JSON")
		return
	}

	updated, err := h.tokens.Update(r.Context(), id, req.toUpdate())
	if err != nil {
		if errors.Is(err, token.ErrNotFound) {
			WriteError(w, http.StatusNotFound, ErrCodeNotFound, "token not found")
			return
		}
		h.logger.Error("failed to update token", "id", id, "error", err)
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, tokenResponse(updated))
}

// HandleRevokeToken unconditionally revokes a token. Idempotent.
// POST /api/admin/tokens/{id}/revoke
func (h *AdminHandler) HandleRevokeToken(w http.ResponseWriter, r *http.Request) {
	id, ok := tokenID(w, r)
	if !ok {
		return
	}

	revoked, err := h.tokens.Revoke(r.Context(), id)
	if err != nil {
		h.tokenError(w, err)
		return
	}

	h.logger.Info("token revoked by admin", "id", id, "admin", auth.AdminFromContext(r.Context()))
	WriteJSON(w, http.StatusOK, tokenResponse(revoked))
}

// HandleDeleteToken removes a token record.
// DELETE /api/admin/tokens/{id}
func (h *AdminHandler) HandleDeleteToken(w http.ResponseWriter, r *http.Request) {
	id, ok := tokenID(w, r)
	if !ok {
		return
	}

	existed, err := h.tokens.Delete(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to delete token", "id", id, "error", err)
		WriteError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
		return
	}
	if !existed {
		WriteError(w, http.StatusNotFound, ErrCodeNotFound, "token not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleListDirs returns the directories directly under the storage root,
// for picking a token's downloadable path.
// GET /api/admin/dirs
func (h *AdminHandler) HandleListDirs(w http.ResponseWriter, r *http.Request) {
	dirs, err := h.files.ListDirs()
	if err != nil {
		h.logger.Error("failed to list storage dirs", "error", err)
		WriteError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
		return
	}
	WriteJSON(w, http.StatusOK, dirs)
}

// HandleListLogs returns a page of access log entries, newest first.
// GET /api/admin/logs?page=&limit=
func (h *AdminHandler) HandleListLogs(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)

	entries, err := h.store.ListAccessLogs(r.Context(), offset, limit)
	if err != nil {
		h.logger.Error("failed to list access logs", "error", err)
		WriteError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
		return
	}
	total, err := h.store.CountAccessLogs(r.Context())
	if err != nil {
		h.logger.Error("failed to count access logs", "error", err)
		WriteError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
		return
	}

	responses := make([]AccessLogResponse, len(entries))
	for i, e := range entries {
		responses[i] = AccessLogResponse{
			ID:        e.ID,
			TokenID:   e.TokenID,
			IPAddress: e.IPAddress,
			Timestamp: e.Timestamp,
			Action:    e.Action,
			Details:   e.Details,
		}
	}

	WriteJSON(w, http.StatusOK, PaginatedResponse{Total: total, Items: responses})
}

// SetLogLevelRequest is the request body for POST /api/admin/loglevel.
type SetLogLevelRequest struct {
	Level string `json:"level"`
}

// HandleSetLogLevel changes the runtime log level.
// POST /api/admin/loglevel
func (h *AdminHandler) HandleSetLogLevel(w http.ResponseWriter, r *http.Request) {
	var req SetLogLevelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid JSON")
		return
	}

	var level slog.Level
	switch req.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid level (must be: debug, info, warn, error)")
		return
	}

	h.logLevel.Set(level)
	h.logger.Info("log level changed", "new_level", req.Level, "admin", auth.AdminFromContext(r.Context()))

	WriteJSON(w, http.StatusOK, map[string]string{"level": req.Level})
}

// HandleHealth reports process liveness.
// GET /health
func (h *AdminHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleReady reports readiness: the database must answer a ping.
// GET /ready
func (h *AdminHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Error("readiness check failed", "error", err)
		WriteError(w, http.StatusServiceUnavailable, ErrCodeInternalError, "database unavailable")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// tokenError maps lifecycle service errors for single-token endpoints.
func (h *AdminHandler) tokenError(w http.ResponseWriter, err error) {
	if errors.Is(err, token.ErrNotFound) {
		WriteError(w, http.StatusNotFound, ErrCodeNotFound, "token not found")
		return
	}
	h.logger.Error("token operation failed", "error", err)
	WriteError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
}

// tokenID parses the {id} URL parameter, writing a 400 on failure.
func tokenID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid token ID")
		return 0, false
	}
	return id, true
}

// pagination extracts 1-based page/limit query parameters and converts them
// to an offset/limit pair.
func pagination(r *http.Request) (offset, limit int) {
	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}

	limit = defaultPageSize
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	return (page - 1) * limit, limit
}
