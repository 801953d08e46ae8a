// Package kvstore provides the durable, namespaced key-value store backing
// baselines, alert persistence and all TTL caches.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sentinela/internal/config"
)

// Namespace separates logically distinct key sets inside one store.
type Namespace string

const (
	NamespaceBaselines      Namespace = "baselines"
	NamespaceAlerts         Namespace = "alerts"
	NamespaceSentimentCache Namespace = "cache:sentiment"
	NamespaceBriefingCache  Namespace = "cache:briefing"
	NamespaceTrendsCache    Namespace = "cache:trends"
	NamespaceNewsCache      Namespace = "cache:news"
)

// ErrNotFound is returned when a key does not exist in a namespace.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is a typed key-value interface over any durable backend.
// Writes are atomic single-key operations; no transactions are required.
type Store interface {
	Get(ctx context.Context, ns Namespace, key string) ([]byte, error)
	Set(ctx context.Context, ns Namespace, key string, value []byte) error
	Delete(ctx context.Context, ns Namespace, key string) error
	// List returns all key/value pairs in a namespace.
	List(ctx context.Context, ns Namespace) (map[string][]byte, error)
	Close() error
}

// Open creates a store for the configured backend.
func Open(cfg config.Store, dataDir string) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "sqlite", "":
		return NewSQLite(dataDir)
	case "redis":
		return NewRedis(cfg.RedisURL)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Backend)
	}
}
