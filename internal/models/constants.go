package models

const (
	MovementIn  = "IN"
	MovementOut = "OUT"
)

const (
	SyncStatusPending   = "pending"
	SyncStatusRetry     = "retry"
	SyncStatusCompleted = "completed"
	SyncStatusFailed    = "failed"
)

const (
	// NoteScanned marks movements created through the scan fast path.
	NoteScanned = "scanned"

	// DefaultMovementLimit is the page size for movement listings.
	DefaultMovementLimit = 500

	// MaxMovementLimit caps movement listings regardless of the request.
	MaxMovementLimit = 1000

	// ProductCacheTTL is how long scan lookups stay cached, in seconds.
	ProductCacheTTL = 30 * 60

	// WorkerQueueSize is the in-memory sync queue capacity.
	WorkerQueueSize = 1000

	// RateLimitRequests is the per-client request budget per window.
	RateLimitRequests = 20

	// RateLimitWindow is the rate limit window in seconds.
	RateLimitWindow = 60
)
