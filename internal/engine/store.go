// Package engine implements the training record store and the durable slot
// backends it persists into.
package engine

import (
	"context"

	"github.com/celerix-dev/certify-one/internal/config"
	"github.com/celerix-dev/certify-one/internal/logger"
	"github.com/pkg/errors"
)

// SlotStore is a named durable key/value location. Load returns
// engine.ErrSlotNotFound for a slot that was never written or was removed.
type SlotStore interface {
	Load(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, data []byte) error
	Remove(ctx context.Context, name string) error
	Names(ctx context.Context) ([]string, error)
	Close() error
}

var (
	_ SlotStore = (*FileSlots)(nil)
	_ SlotStore = (*SQLiteSlots)(nil)
	_ SlotStore = (*RedisSlots)(nil)
	_ SlotStore = (*SealedSlots)(nil)
)

// OpenSlots opens the backend named by cfg.Backend.
func OpenSlots(ctx context.Context, cfg config.StorageConfig) (SlotStore, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		return NewFileSlots(cfg.DataDir)
	case config.BackendSQLite:
		return NewSQLiteSlots(ctx, cfg.SQLitePath)
	case config.BackendRedis:
		return NewRedisSlots(ctx, RedisOptions{
			Addr:   cfg.RedisAddr,
			DB:     cfg.RedisDB,
			Prefix: cfg.RedisPrefix,
		})
	default:
		return nil, errors.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// OpenConfigured opens the configured backend and, when a vault key is set,
// seals the session blob slot.
func OpenConfigured(ctx context.Context, cfg config.Config, log *logger.Logger) (SlotStore, error) {
	slots, err := OpenSlots(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	if cfg.Storage.VaultKey == "" {
		return slots, nil
	}
	key, err := cfg.VaultKeyBytes()
	if err != nil {
		slots.Close()
		return nil, err
	}
	log.Info("Session data sealed at rest", "backend", cfg.Storage.Backend)
	return NewSealedSlots(slots, key, sealedSlotNames...), nil
}
