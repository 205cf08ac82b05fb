// Package store provides the key/value persistence contract the server uses
// for session records and table snapshots. Two implementations exist: a
// durable sqlite store and an in-memory fallback. The choice is made once at
// startup; a durable store that later fails logs its errors but is never
// re-probed.
package store

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("key not found")

// Store is a flat key/value namespace. Keys are grouped by prefix:
// "session:<id>" holds serialized session records and "room:<id>" holds
// table snapshots. Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	KeysWithPrefix(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// Open probes the durable store at the given DSN once and falls back to the
// in-memory store when the DSN is empty or the probe fails. The fallback is
// final for the process lifetime.
func Open(ctx context.Context, dsn string, logger *log.Logger) Store {
	if dsn == "" {
		logger.Debug("no store DSN configured, using in-memory store")
		return NewMemory()
	}
	s, err := OpenSQLite(ctx, dsn)
	if err != nil {
		logger.Warn("durable store unreachable, falling back to in-memory", "dsn", dsn, "err", err)
		return NewMemory()
	}
	logger.Info("using durable store", "dsn", dsn)
	return s
}
