package localcache

import (
	"context"
	"fmt"

	"github.com/shramsathi/shramsathi-backend-go/internal/domain/syncqueue"
	"github.com/shramsathi/shramsathi-backend-go/internal/pkg/localstore"
)

type syncQueueStore struct {
	store localstore.Store
}

func NewSyncQueueStore(store localstore.Store) syncqueue.Store {
	return &syncQueueStore{store: store}
}

func (s *syncQueueStore) Load(ctx context.Context) ([]syncqueue.Entry, error) {
	entries, err := getJSON[[]syncqueue.Entry](ctx, s.store, syncQueueKey)
	if err != nil {
		return nil, fmt.Errorf("localcache: load sync queue: %w", err)
	}
	if entries == nil {
		return nil, nil
	}
	return *entries, nil
}

func (s *syncQueueStore) Save(ctx context.Context, entries []syncqueue.Entry) error {
	if entries == nil {
		entries = []syncqueue.Entry{}
	}
	if err := putJSON(ctx, s.store, syncQueueKey, entries); err != nil {
		return fmt.Errorf("localcache: save sync queue: %w", err)
	}
	return nil
}
