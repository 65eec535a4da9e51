package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ID-VerNe/secure-drop/internal/metrics"
	"github.com/ID-VerNe/secure-drop/internal/storage"
	"github.com/ID-VerNe/secure-drop/internal/token"
)

// TokenValidator re-checks the underlying token on every guest request, so
// a token revoked or expired mid-session stops working immediately.
type TokenValidator interface {
	Validate(ctx context.Context, tokenString string) (*storage.Token, error)
}

// GuestMiddleware verifies the guest's session credential and then
// re-validates the token it was issued for. The resulting policy is placed
// in the request context.
func GuestMiddleware(signer *Signer, validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			credential := extractBearerToken(r)
			if credential == "" {
				metrics.RecordAuthFailure("missing_credential")
				writeJSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			tokenString, err := signer.Verify(credential, KindSession)
			if err != nil {
				metrics.RecordAuthFailure("invalid_session")
				writeJSONError(w, http.StatusUnauthorized, "invalid session credential")
				return
			}

			policy, err := validator.Validate(r.Context(), tokenString)
			if err != nil {
				status, message := rejectionStatus(err)
				metrics.RecordAuthFailure("token_rejected")
				writeJSONError(w, status, message)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPolicy(r.Context(), policy)))
		})
	}
}

// AdminMiddleware verifies the admin credential and places the username in
// the request context.
func AdminMiddleware(signer *Signer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			credential := extractBearerToken(r)
			if credential == "" {
				metrics.RecordAuthFailure("missing_credential")
				writeJSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			username, err := signer.Verify(credential, KindAdmin)
			if err != nil {
				metrics.RecordAuthFailure("invalid_admin")
				writeJSONError(w, http.StatusUnauthorized, "invalid credential")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAdmin(r.Context(), username)))
		})
	}
}

// rejectionStatus maps a validation rejection to its HTTP status. Unknown
// tokens are 404 and dead tokens 403; this distinction is part of the API
// contract.
func rejectionStatus(err error) (int, string) {
	switch {
	case errors.Is(err, token.ErrNotFound):
		return http.StatusNotFound, "invalid token"
	case errors.Is(err, token.ErrExpired):
		return http.StatusForbidden, "token expired"
	case errors.Is(err, token.ErrExhausted):
		return http.StatusForbidden, "token exhausted"
	case errors.Is(err, token.ErrRevoked):
		return http.StatusForbidden, "token revoked"
	case errors.Is(err, token.ErrForbidden):
		return http.StatusForbidden, "token not usable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// extractBearerToken gets the credential from "Authorization: Bearer <token>".
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(map[string]string{"error": message})
	if err != nil {
		// Encoding errors are not critical for error responses
		_ = err
	}
}
