// Package localcache stores typed records in the device's key-value cache
// under the key layout the UI shell shares:
//
//	user_<id>                       user record
//	mobile_<mobile>                 id of the user with that mobile
//	attendance_<userId>_<date>      attendance record
//	relation_<contractorId>_<workerId>
//	sync_queue                      pending remote writes
//
// All keys live in the cache namespace except the session, which is kept
// under its own top-level key.
package localcache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shramsathi/shramsathi-backend-go/internal/pkg/localstore"
)

const (
	userKeyPrefix       = "user_"
	mobileKeyPrefix     = "mobile_"
	attendanceKeyPrefix = "attendance_"
	relationKeyPrefix   = "relation_"
	syncQueueKey        = "sync_queue"

	// SessionKey is the top-level key of the active session.
	SessionKey = "shramsathi_user"
)

func getJSON[T any](ctx context.Context, store localstore.Store, key string) (*T, error) {
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return &v, nil
}

func putJSON(ctx context.Context, store localstore.Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return store.Set(ctx, key, string(data))
}

// scanJSON decodes every item under prefix. Items that do not decode are
// skipped so one corrupt entry cannot hide the rest of the cache.
func scanJSON[T any](ctx context.Context, store localstore.Store, prefix string) ([]T, error) {
	items, err := store.Scan(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		var v T
		if err := json.Unmarshal([]byte(item.Value), &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// Counts reports how many cached items exist per kind.
type Counts struct {
	Items      int
	Users      int
	Relations  int
	Attendance int
}

func Count(ctx context.Context, store localstore.Store) (Counts, error) {
	items, err := store.Scan(ctx, "")
	if err != nil {
		return Counts{}, err
	}
	c := Counts{Items: len(items)}
	for _, item := range items {
		switch {
		case strings.HasPrefix(item.Key, userKeyPrefix):
			c.Users++
		case strings.HasPrefix(item.Key, relationKeyPrefix):
			c.Relations++
		case strings.HasPrefix(item.Key, attendanceKeyPrefix):
			c.Attendance++
		}
	}
	return c, nil
}

// Clear removes every item in store and returns how many were removed.
func Clear(ctx context.Context, store localstore.Store) (int, error) {
	items, err := store.Scan(ctx, "")
	if err != nil {
		return 0, err
	}
	for i, item := range items {
		if err := store.Delete(ctx, item.Key); err != nil {
			return i, err
		}
	}
	return len(items), nil
}
