package storage

import "time"

// Token status values. A token starts as StatusUnused and is activated on
// first successful guest login. Expiry and exhaustion are detected lazily at
// validation time; revocation is an administrator action and wins over any
// other state.
const (
	StatusUnused    = "unused"
	StatusActive    = "active"
	StatusExhausted = "exhausted"
	StatusExpired   = "expired"
	StatusRevoked   = "revoked"
)

// Filename conflict strategies applied when an upload target already exists.
const (
	ConflictRename    = "rename"
	ConflictOverwrite = "overwrite"
	ConflictReject    = "reject"
)

// Token is the policy bundle attached to one issued access token.
// TokenString is the opaque bearer secret handed to a guest; everything else
// describes what that guest is allowed to do.
type Token struct {
	ID          int64
	TokenString string
	Description string
	Status      string
	CreatedAt   time.Time
	ExpiresAt   *time.Time

	MaxUsageCount     int64 // 0 = unlimited
	CurrentUsageCount int64
	DeleteOnExhaust   bool

	PageTitle      string
	WelcomeMessage string

	AllowUpload              bool
	UploadPath               string
	AllowedFileTypes         string // comma-separated extension allow-list, empty = any
	MaxFileSizeMB            *int64
	MaxTotalUploadGB         *int64 // reserved, not enforced
	UploadBandwidthLimitKbps int64  // 0 = unlimited
	FilenameConflictStrategy string

	AllowDownload              bool
	DownloadablePath           string
	DownloadBandwidthLimitKbps int64
	AllowResumableDownload     bool
}

// TokenUpdate carries a partial update for a token. Nil fields are left
// untouched. TokenString, Status and CurrentUsageCount are deliberately
// absent: they are server-derived and must never be set through an update.
type TokenUpdate struct {
	Description     *string
	ExpiresAt       *time.Time
	ClearExpiresAt  bool
	MaxUsageCount   *int64
	DeleteOnExhaust *bool

	PageTitle      *string
	WelcomeMessage *string

	AllowUpload              *bool
	UploadPath               *string
	AllowedFileTypes         *string
	MaxFileSizeMB            *int64
	MaxTotalUploadGB         *int64
	UploadBandwidthLimitKbps *int64
	FilenameConflictStrategy *string

	AllowDownload              *bool
	DownloadablePath           *string
	DownloadBandwidthLimitKbps *int64
	AllowResumableDownload     *bool
}

// Admin is an administrator account used for the management API.
type Admin struct {
	ID             int64
	Username       string
	HashedPassword string
	CreatedAt      time.Time
}

// AccessLog is one append-only record of a guest operation, authorized or
// rejected. TokenID is a weak reference: the row survives token deletion.
type AccessLog struct {
	ID        int64
	TokenID   int64
	IPAddress string
	Timestamp time.Time
	Action    string
	Details   string
}
