package remote

import "context"

// Prober checks reachability of the remote store with a lightweight write.
type Prober interface {
	Probe(ctx context.Context) error
}
