// Package dualstore holds the fallback order between the remote record
// store and the local cache. Remote errors never reach the caller: they are
// logged and the local path answers instead. Only a failing local path
// produces an error.
package dualstore

import (
	"context"
	"log/slog"
)

// RemoteFunc reads or writes the remote store. A nil RemoteFunc means the
// remote store is skipped for this call.
type RemoteFunc[T any] func(ctx context.Context) (T, error)

// MirrorFunc copies a remote result into the cache.
type MirrorFunc[T any] func(ctx context.Context, v T) error

// ReadOne asks the remote store first. A hit is mirrored and returned; a
// miss (nil) or a remote error falls through to local.
func ReadOne[T any](ctx context.Context, op string, remote RemoteFunc[*T], mirror MirrorFunc[T], local func(ctx context.Context) (*T, error)) (*T, error) {
	if remote != nil {
		v, err := remote(ctx)
		switch {
		case err != nil:
			slog.WarnContext(ctx, "remote read failed, using local cache", "op", op, "error", err)
		case v != nil:
			mirrorOne(ctx, op, mirror, *v)
			return v, nil
		}
	}
	return local(ctx)
}

// ReadMany asks the remote store first. A non-empty result is mirrored item
// by item and returned; an empty result or a remote error falls through to
// local.
func ReadMany[T any](ctx context.Context, op string, remote RemoteFunc[[]T], mirror MirrorFunc[T], local func(ctx context.Context) ([]T, error)) ([]T, error) {
	if remote != nil {
		items, err := remote(ctx)
		switch {
		case err != nil:
			slog.WarnContext(ctx, "remote read failed, using local cache", "op", op, "error", err)
		case len(items) > 0:
			for _, item := range items {
				mirrorOne(ctx, op, mirror, item)
			}
			return items, nil
		}
	}
	return local(ctx)
}

// Outcome tells the caller which path served a write.
type Outcome struct {
	// Remote is true when the remote write succeeded.
	Remote bool
	// RemoteErr is the error of an attempted remote write. It is nil when
	// the remote write succeeded or was skipped.
	RemoteErr error
}

// Write tries the remote store first and mirrors its result. When the
// remote store is skipped or fails, local performs the write instead.
func Write[T any](ctx context.Context, op string, remote RemoteFunc[T], mirror MirrorFunc[T], local func(ctx context.Context) (T, error)) (T, Outcome, error) {
	var outcome Outcome
	if remote != nil {
		v, err := remote(ctx)
		if err == nil {
			mirrorOne(ctx, op, mirror, v)
			outcome.Remote = true
			return v, outcome, nil
		}
		slog.WarnContext(ctx, "remote write failed, writing to local cache", "op", op, "error", err)
		outcome.RemoteErr = err
	}
	v, err := local(ctx)
	return v, outcome, err
}

func mirrorOne[T any](ctx context.Context, op string, mirror MirrorFunc[T], v T) {
	if mirror == nil {
		return
	}
	if err := mirror(ctx, v); err != nil {
		slog.WarnContext(ctx, "mirror to local cache failed", "op", op, "error", err)
	}
}
