package httpapi

import (
	"time"

	"github.com/ID-VerNe/secure-drop/internal/storage"
)

// TokenCreateRequest is the admin payload for issuing a token. All policy
// fields are settable; identity and lifecycle-derived fields are not.
type TokenCreateRequest struct {
	Description     string     `json:"description"`
	ExpiresAt       *time.Time `json:"expires_at"`
	MaxUsageCount   int64      `json:"max_usage_count"`
	DeleteOnExhaust bool       `json:"delete_on_exhaust"`

	PageTitle      string `json:"page_title"`
	WelcomeMessage string `json:"welcome_message"`

	AllowUpload              bool   `json:"allow_upload"`
	UploadPath               string `json:"upload_path"`
	AllowedFileTypes         string `json:"allowed_file_types"`
	MaxFileSizeMB            *int64 `json:"max_file_size_mb"`
	MaxTotalUploadGB         *int64 `json:"max_total_upload_gb"`
	UploadBandwidthLimitKbps int64  `json:"upload_bandwidth_limit_kbps"`
	FilenameConflictStrategy string `json:"filename_conflict_strategy"`

	AllowDownload              bool   `json:"allow_download"`
	DownloadablePath           string `json:"downloadable_path"`
	DownloadBandwidthLimitKbps int64  `json:"download_bandwidth_limit_kbps"`
	AllowResumableDownload     bool   `json:"allow_resumable_download"`
}

func (r *TokenCreateRequest) toToken() *storage.Token {
	return &storage.Token{
		Description:                r.Description,
		ExpiresAt:                  r.ExpiresAt,
		MaxUsageCount:              r.MaxUsageCount,
		DeleteOnExhaust:            r.DeleteOnExhaust,
		PageTitle:                  r.PageTitle,
		WelcomeMessage:             r.WelcomeMessage,
		AllowUpload:                r.AllowUpload,
		UploadPath:                 r.UploadPath,
		AllowedFileTypes:           r.AllowedFileTypes,
		MaxFileSizeMB:              r.MaxFileSizeMB,
		MaxTotalUploadGB:           r.MaxTotalUploadGB,
		UploadBandwidthLimitKbps:   r.UploadBandwidthLimitKbps,
		FilenameConflictStrategy:   r.FilenameConflictStrategy,
		AllowDownload:              r.AllowDownload,
		DownloadablePath:           r.DownloadablePath,
		DownloadBandwidthLimitKbps: r.DownloadBandwidthLimitKbps,
		AllowResumableDownload:     r.AllowResumableDownload,
	}
}

// TokenUpdateRequest is the admin payload for a partial token update.
// Absent fields are left untouched.
type TokenUpdateRequest struct {
	Description     *string    `json:"description"`
	ExpiresAt       *time.Time `json:"expires_at"`
	ClearExpiresAt  bool       `json:"clear_expires_at"`
	MaxUsageCount   *int64     `json:"max_usage_count"`
	DeleteOnExhaust *bool      `json:"delete_on_exhaust"`

	PageTitle      *string `json:"page_title"`
	WelcomeMessage *string `json:"welcome_message"`

	AllowUpload              *bool   `json:"allow_upload"`
	UploadPath               *string `json:"upload_path"`
	AllowedFileTypes         *string `json:"allowed_file_types"`
	MaxFileSizeMB            *int64  `json:"max_file_size_mb"`
	MaxTotalUploadGB         *int64  `json:"max_total_upload_gb"`
	UploadBandwidthLimitKbps *int64  `json:"upload_bandwidth_limit_kbps"`
	FilenameConflictStrategy *string `json:"filename_conflict_strategy"`

	AllowDownload              *bool   `json:"allow_download"`
	DownloadablePath           *string `json:"downloadable_path"`
	DownloadBandwidthLimitKbps *int64  `json:"download_bandwidth_limit_kbps"`
	AllowResumableDownload     *bool   `json:"allow_resumable_download"`
}

func (r *TokenUpdateRequest) toUpdate() *storage.TokenUpdate {
	return &storage.TokenUpdate{
		Description:                r.Description,
		ExpiresAt:                  r.ExpiresAt,
		ClearExpiresAt:             r.ClearExpiresAt,
		MaxUsageCount:              r.MaxUsageCount,
		DeleteOnExhaust:            r.DeleteOnExhaust,
		PageTitle:                  r.PageTitle,
		WelcomeMessage:             r.WelcomeMessage,
		AllowUpload:                r.AllowUpload,
		UploadPath:                 r.UploadPath,
		AllowedFileTypes:           r.AllowedFileTypes,
		MaxFileSizeMB:              r.MaxFileSizeMB,
		MaxTotalUploadGB:           r.MaxTotalUploadGB,
		UploadBandwidthLimitKbps:   r.UploadBandwidthLimitKbps,
		FilenameConflictStrategy:   r.FilenameConflictStrategy,
		AllowDownload:              r.AllowDownload,
		DownloadablePath:           r.DownloadablePath,
		DownloadBandwidthLimitKbps: r.DownloadBandwidthLimitKbps,
		AllowResumableDownload:     r.AllowResumableDownload,
	}
}

// TokenResponse is the admin-facing view of a token record.
type TokenResponse struct {
	ID                int64      `json:"id"`
	TokenString       string     `json:"token_string"`
	Description       string     `json:"description"`
	Status            string     `json:"status"`
	CreatedAt         time.Time  `json:"created_at"`
	ExpiresAt         *time.Time `json:"expires_at"`
	MaxUsageCount     int64      `json:"max_usage_count"`
	CurrentUsageCount int64      `json:"current_usage_count"`
	DeleteOnExhaust   bool       `json:"delete_on_exhaust"`

	PageTitle      string `json:"page_title"`
	WelcomeMessage string `json:"welcome_message"`

	AllowUpload              bool   `json:"allow_upload"`
	UploadPath               string `json:"upload_path"`
	AllowedFileTypes         string `json:"allowed_file_types"`
	MaxFileSizeMB            *int64 `json:"max_file_size_mb"`
	MaxTotalUploadGB         *int64 `json:"max_total_upload_gb"`
	UploadBandwidthLimitKbps int64  `json:"upload_bandwidth_limit_kbps"`
	FilenameConflictStrategy string `json:"filename_conflict_strategy"`

	AllowDownload              bool   `json:"allow_download"`
	DownloadablePath           string `json:"downloadable_path"`
	DownloadBandwidthLimitKbps int64  `json:"download_bandwidth_limit_kbps"`
	AllowResumableDownload     bool   `json:"allow_resumable_download"`
}

func tokenResponse(t *storage.Token) TokenResponse {
	return TokenResponse{
		ID:                         t.ID,
		TokenString:                t.TokenString,
		Description:                t.Description,
		Status:                     t.Status,
		CreatedAt:                  t.CreatedAt,
		ExpiresAt:                  t.ExpiresAt,
		MaxUsageCount:              t.MaxUsageCount,
		CurrentUsageCount:          t.CurrentUsageCount,
		DeleteOnExhaust:            t.DeleteOnExhaust,
		PageTitle:                  t.PageTitle,
		WelcomeMessage:             t.WelcomeMessage,
		AllowUpload:                t.AllowUpload,
		UploadPath:                 t.UploadPath,
		AllowedFileTypes:           t.AllowedFileTypes,
		MaxFileSizeMB:              t.MaxFileSizeMB,
		MaxTotalUploadGB:           t.MaxTotalUploadGB,
		UploadBandwidthLimitKbps:   t.UploadBandwidthLimitKbps,
		FilenameConflictStrategy:   t.FilenameConflictStrategy,
		AllowDownload:              t.AllowDownload,
		DownloadablePath:           t.DownloadablePath,
		DownloadBandwidthLimitKbps: t.DownloadBandwidthLimitKbps,
		AllowResumableDownload:     t.AllowResumableDownload,
	}
}

// GuestPolicyResponse is the guest-facing view of a token's policy. Paths
// and lifecycle internals stay server-side.
type GuestPolicyResponse struct {
	PageTitle                string `json:"page_title"`
	WelcomeMessage           string `json:"welcome_message"`
	AllowUpload              bool   `json:"allow_upload"`
	AllowDownload            bool   `json:"allow_download"`
	AllowedFileTypes         string `json:"allowed_file_types"`
	MaxFileSizeMB            *int64 `json:"max_file_size_mb"`
	FilenameConflictStrategy string `json:"filename_conflict_strategy"`
	AllowResumableDownload   bool   `json:"allow_resumable_download"`
}

func guestPolicyResponse(t *storage.Token) GuestPolicyResponse {
	return GuestPolicyResponse{
		PageTitle:                t.PageTitle,
		WelcomeMessage:           t.WelcomeMessage,
		AllowUpload:              t.AllowUpload,
		AllowDownload:            t.AllowDownload,
		AllowedFileTypes:         t.AllowedFileTypes,
		MaxFileSizeMB:            t.MaxFileSizeMB,
		FilenameConflictStrategy: t.FilenameConflictStrategy,
		AllowResumableDownload:   t.AllowResumableDownload,
	}
}

// AccessLogResponse is one audit record in admin listings.
type AccessLogResponse struct {
	ID        int64     `json:"id"`
	TokenID   int64     `json:"token_id"`
	IPAddress string    `json:"ip_address"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
}

// PaginatedResponse wraps a page of items with the total count.
type PaginatedResponse struct {
	Total int64 `json:"total"`
	Items any   `json:"items"`
}
