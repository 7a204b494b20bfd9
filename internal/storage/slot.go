// Package storage keeps the task list in a durable key-value slot.
//
// A Slot stores opaque bytes under a string key. Backends:
//
//   - file: one JSON file per key in a directory
//   - sqlite: a single-table key-value database
//   - redis: plain GET/SET on a redis server
//   - memory: process-local map, for tests and throwaway sessions
//
// Adapter sits on top of a Slot and mirrors a task collection into it.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// ErrNotFound is returned by Slot.Get when nothing is stored under the key.
var ErrNotFound = errors.New("slot is empty")

// Slot is a durable key-value entry store.
type Slot interface {
	// Get returns the bytes stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set overwrites the bytes stored under key.
	Set(ctx context.Context, key string, value []byte) error
	// Close releases the backend.
	Close() error
}

// StorageError reports a failed slot operation.
type StorageError struct {
	Op  string // "load" or "save"
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Key, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// Options selects and configures a backend.
type Options struct {
	Backend       string
	Dir           string // file backend directory
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Open returns the Slot for opts.Backend.
func Open(ctx context.Context, opts Options) (Slot, error) {
	switch opts.Backend {
	case "", BackendFile:
		return NewFileSlot(opts.Dir)
	case BackendSQLite:
		return NewSQLiteSlot(ctx, opts.SQLitePath)
	case BackendRedis:
		return NewRedisSlot(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB)
	case BackendMemory:
		return NewMemorySlot(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q (expected file|sqlite|redis|memory)", opts.Backend)
	}
}
