// Package store persists authenticated wallet sessions.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/fd1az/walletd/business/wallet/app"
	"github.com/fd1az/walletd/internal/apperror"
	"github.com/fd1az/walletd/internal/config"
	"github.com/fd1az/walletd/internal/logger"
)

const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Store is a SessionStore that can report its health and be closed.
type Store interface {
	app.SessionStore
	Ping(ctx context.Context) error
	Close() error
}

// New builds the store selected by cfg.Driver. Records expire after ttl.
func New(ctx context.Context, cfg config.StoreConfig, ttl time.Duration, log logger.LoggerInterface) (Store, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		log.Info(ctx, "using in-memory session store")
		return NewMemory(ttl), nil
	case DriverRedis:
		s := NewRedis(cfg, ttl)
		if err := s.Ping(ctx); err != nil {
			s.Close()
			return nil, err
		}
		log.Info(ctx, "using redis session store", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
		return s, nil
	default:
		return nil, apperror.New(apperror.CodeConfigurationError, apperror.WithContext("store.driver "+cfg.Driver))
	}
}

// normalize makes address lookups case insensitive.
func normalize(address string) string {
	return strings.ToLower(address)
}
