package store

import (
	"context"
	"errors"
	"strings"
)

// Keys under which each entity collection is persisted.
const (
	KeyBusiness      = "business"
	KeySessions      = "sessions"
	KeySubscriptions = "subscriptions"
	KeyOrders        = "orders"
	KeyTransactions  = "transactions"
)

var (
	ErrNotFound     = errors.New("store_key_not_found")
	ErrCorrupt      = errors.New("store_payload_corrupt")
	ErrInvalidKey   = errors.New("invalid_store_key")
	ErrUnknownStore = errors.New("unknown_store_driver")
)

// Meta is free-form bookkeeping stored next to a payload.
type Meta map[string]any

// KV is a durable byte store keyed by collection name. Put replaces the value
// atomically.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte, meta Meta) error
}

func namespaced(namespace, key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrInvalidKey
	}
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		return key, nil
	}
	return namespace + ":" + key, nil
}
