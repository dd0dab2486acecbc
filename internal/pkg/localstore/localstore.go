// Package localstore is the device's key-value cache. Values are opaque
// strings; callers store JSON. Scan returns items in insertion order, and
// overwriting a key keeps its original position.
package localstore

import (
	"context"
	"strings"
)

type Item struct {
	Key   string
	Value string
}

type Store interface {
	// Get returns ok=false when the key does not exist.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// Scan returns every item whose key starts with prefix, in insertion order.
	Scan(ctx context.Context, prefix string) ([]Item, error)
}

// Namespace confines a Store to keys under prefix. Keys passed in and
// returned from Scan are relative to the prefix.
type Namespace struct {
	store  Store
	prefix string
}

func NewNamespace(store Store, prefix string) *Namespace {
	return &Namespace{store: store, prefix: prefix}
}

func (n *Namespace) Prefix() string { return n.prefix }

func (n *Namespace) Get(ctx context.Context, key string) (string, bool, error) {
	return n.store.Get(ctx, n.prefix+key)
}

func (n *Namespace) Set(ctx context.Context, key, value string) error {
	return n.store.Set(ctx, n.prefix+key, value)
}

func (n *Namespace) Delete(ctx context.Context, key string) error {
	return n.store.Delete(ctx, n.prefix+key)
}

func (n *Namespace) Scan(ctx context.Context, prefix string) ([]Item, error) {
	items, err := n.store.Scan(ctx, n.prefix+prefix)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Key = strings.TrimPrefix(items[i].Key, n.prefix)
	}
	return items, nil
}
