// Package storage provides the durable key-value media a cart is mirrored to.
//
// A Medium stores one opaque document per key. The cart store writes the
// whole serialized cart after every mutation and reads it once at startup.
package storage

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/cartd/internal/config"
	"github.com/fyrsmithlabs/cartd/internal/logging"
)

// ErrNotFound is returned by Get when nothing is stored under the key.
var ErrNotFound = errors.New("storage: key not found")

// ErrClosed is returned by operations on a closed medium.
var ErrClosed = errors.New("storage: medium closed")

// Medium is a durable key-value store for serialized carts.
type Medium interface {
	// Get returns the document stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put replaces the document stored under key. It returns only after the
	// write is durable or has failed.
	Put(ctx context.Context, key string, value []byte) error

	// Close releases the medium's resources.
	Close() error
}

// Open creates the medium selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (Medium, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("driver", cfg.Driver))

	var (
		m   Medium
		err error
	)
	switch cfg.Driver {
	case config.StorageFile:
		var dir string
		dir, err = config.ExpandHome(cfg.Dir)
		if err == nil {
			m, err = NewFile(dir)
		}
	case config.StorageRedis:
		logger = logger.With(logging.Secret("redis_url", cfg.RedisURL), zap.String("prefix", cfg.RedisPrefix))
		m, err = NewRedis(ctx, cfg.RedisURL.Value(), cfg.RedisPrefix)
	case config.StorageSQL:
		logger = logger.With(logging.Secret("database_url", cfg.DatabaseURL))
		m, err = NewSQL(ctx, cfg.DatabaseURL.Value())
	case config.StorageMemory:
		m = NewMemory()
	default:
		err = fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s medium: %w", cfg.Driver, err)
	}

	logger.Info("storage medium opened")
	return m, nil
}
