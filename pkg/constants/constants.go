// Package constants provides shared constants used throughout storefront.
// This includes timeouts, limits, upstream defaults, and file permissions
// that should be consistent across the application.
package constants

import "time"

// Timeout constants bound every outbound call and the inbound request.
const (
	// TokenTimeout bounds a single token exchange
	TokenTimeout = 5 * time.Second

	// ReportTimeout bounds a single report fetch or form submission
	ReportTimeout = 10 * time.Second

	// RequestBudget is the end-to-end budget for one inbound request
	RequestBudget = 15 * time.Second

	// TokenExpirySkew is subtracted from a token's lifetime so it is
	// refreshed before the upstream starts rejecting it
	TokenExpirySkew = 60 * time.Second

	// DefaultTokenLifetime applies when the token endpoint omits expires_in
	DefaultTokenLifetime = time.Hour

	// ShutdownTimeout bounds graceful server shutdown
	ShutdownTimeout = 30 * time.Second

	// ReadHeaderTimeout bounds reading request headers
	ReadHeaderTimeout = 10 * time.Second
)

// Server defaults.
const (
	// DefaultPort is the listen port when PORT is unset
	DefaultPort = 10000

	// DefaultHost is the listen host when HOST is unset
	DefaultHost = ""
)

// Upstream defaults for the production data platform.
const (
	DefaultAccountsURL  = "https://accounts.zoho.com"
	DefaultCreatorURL   = "https://creator.zoho.com"
	DefaultOwner        = "shopsolarkits"
	DefaultApp          = "store-review-management"
	DefaultStoreReport  = "Store_Report"
	DefaultReviewReport = "Review_Report"
	DefaultReviewForm   = "Review"

	// CreatorAPIVersion is the report and form API version path segment
	CreatorAPIVersion = "v2.1"

	// NoRecordsCode is the platform's envelope code for an empty report
	NoRecordsCode = 9280
)

// Limit constants
const (
	// MaxImageSize caps an uploaded review image (10 MiB)
	MaxImageSize = 10 << 20

	// MaxMultipartMemory is held in memory while parsing a submission
	MaxMultipartMemory = 12 << 20

	// MaxErrorBodySize caps how much of an upstream error body is kept
	MaxErrorBodySize = 8 << 10

	// MinRating and MaxRating bound a review rating
	MinRating = 1
	MaxRating = 5
)

// File permission constants
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)
