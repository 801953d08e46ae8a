// Package baseline persists the previous sentiment observation per term,
// the reference point for delta detection.
package baseline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"sentinela/internal/core"
	"sentinela/internal/kvstore"
)

// Store reads and writes per-term sentiment baselines.
type Store struct {
	kv kvstore.Store
}

// NewStore creates a baseline store over kv.
func NewStore(kv kvstore.Store) *Store {
	return &Store{kv: kv}
}

// Get returns the baseline for term, or nil when the term has never been
// observed.
func (s *Store) Get(ctx context.Context, term string) (*core.SentimentBaseline, error) {
	raw, err := s.kv.Get(ctx, kvstore.NamespaceBaselines, key(term))
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var baseline core.SentimentBaseline
	if err := json.Unmarshal(raw, &baseline); err != nil {
		return nil, fmt.Errorf("corrupt baseline for %s: %w", term, err)
	}
	return &baseline, nil
}

// Set records score as the new baseline for term, replacing any previous
// observation.
func (s *Store) Set(ctx context.Context, term string, score float64) error {
	baseline := core.SentimentBaseline{
		Term:       term,
		Score:      score,
		ObservedAt: time.Now().UTC(),
	}
	raw, err := json.Marshal(baseline)
	if err != nil {
		return fmt.Errorf("failed to encode baseline for %s: %w", term, err)
	}
	return s.kv.Set(ctx, kvstore.NamespaceBaselines, key(term), raw)
}

func key(term string) string {
	return strings.ToLower(term)
}
