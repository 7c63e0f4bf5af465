package storage

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Get when the key holds no value.
	ErrNotFound = errors.New("storage: key not found")
	// ErrQuotaExceeded is returned by Set when the value is larger than the
	// backend allows.
	ErrQuotaExceeded = errors.New("storage: quota exceeded")
	// ErrEmptyKey is returned for operations on the empty key.
	ErrEmptyKey = errors.New("storage: empty key")
)

type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type Config struct {
	Backend       string
	DBPath        string
	Dir           string
	RedisAddr     string
	RedisPrefix   string
	MaxValueBytes int
}

func Open(ctx context.Context, cfg Config) (KV, error) {
	switch cfg.Backend {
	case BackendSQLite, "":
		return OpenSQLite(cfg.DBPath, cfg.MaxValueBytes)
	case BackendFile:
		return OpenFile(cfg.Dir, cfg.MaxValueBytes)
	case BackendRedis:
		return OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPrefix, cfg.MaxValueBytes)
	case BackendMemory:
		return NewMemory(cfg.MaxValueBytes), nil
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.Backend)
	}
}

func checkQuota(limit int, value []byte) error {
	if limit > 0 && len(value) > limit {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrQuotaExceeded, len(value), limit)
	}
	return nil
}
