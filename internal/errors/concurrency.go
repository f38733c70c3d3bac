package errors

import "net/http"

// ErrOptimisticLock is the store-level signal that a row changed since it
// was read. Services surface it to clients as ErrPersistenceFailed.
var ErrOptimisticLock = &Exception{
	Kind:       "stale_version",
	Message:    "stale task version",
	StatusCode: http.StatusConflict,
}

var ErrPersistenceFailed = &Exception{
	Kind:       "persistence_failed",
	Message:    "task was modified concurrently, reload and retry",
	StatusCode: http.StatusConflict,
}
