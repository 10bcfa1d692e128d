// Package repository implements the data access layer for the application.
//
// Every repository follows the same persistence shape: the full collection is
// read from the key-value store, mutated in memory, and written back as one
// blob. Reads that hit missing or malformed data fall back to an empty
// collection rather than surfacing an error; that fallback is a documented
// policy of this layer, not an accident of parsing.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"pinkbook/internal/kvstore"
)

// decodeCollection unmarshals raw JSON into a slice of T. Malformed data is
// treated the same as absent data: the caller gets an empty slice and the
// corruption is logged, never propagated.
func decodeCollection[T any](logger *slog.Logger, key, raw string) []T {
	var out []T
	if raw == "" {
		return []T{}
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		logger.Warn("discarding malformed collection", "key", key, "error", err)
		return []T{}
	}
	if out == nil {
		return []T{}
	}
	return out
}

// loadCollection reads and decodes the collection stored under key. A missing
// key yields an empty slice; a storage failure is logged and also yields an
// empty slice, favoring availability over completeness.
func loadCollection[T any](ctx context.Context, kv kvstore.Store, logger *slog.Logger, key string) []T {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			logger.Error("reading collection failed", "key", key, "error", err)
		}
		return []T{}
	}
	return decodeCollection[T](logger, key, raw)
}

// storeCollection serializes and overwrites the collection stored under key.
func storeCollection[T any](ctx context.Context, kv kvstore.Store, key string, items []T) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return kv.Set(ctx, key, string(raw))
}
