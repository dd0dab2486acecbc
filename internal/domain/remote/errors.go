package remote

import "errors"

var (
	// ErrUnreachable is returned by remote drivers that can tell the store is offline.
	ErrUnreachable = errors.New("remote store unreachable")

	// ErrIndexRequired marks a query the remote store refused to serve without
	// a composite index. Callers retry with an equality-only query.
	ErrIndexRequired = errors.New("remote query requires a composite index")
)
