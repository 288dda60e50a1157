// Package kv provides the key-value services the task collection is stored in.
//
// Every backend implements the same contract: Get returns the bytes stored
// under a key or ErrNotFound, and Set replaces the value under a key in a
// single write. Nothing else about the backend is visible to callers.
//
// Backends:
//   - memory: process-local map, for tests and throwaway sessions
//   - file:   one file per key, written atomically (default)
//   - nats:   a JetStream key-value bucket, external or embedded server
//   - mysql:  a two-column table
package kv

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("kv: key not found")

// Store is a key-value service.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte) error
	// Close releases the backend's resources.
	Close() error
}

// Backend names.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendNATS   = "nats"
	BackendMySQL  = "mysql"
)

// Backends lists every supported backend name.
var Backends = []string{BackendMemory, BackendFile, BackendNATS, BackendMySQL}

// IsBackend reports whether name is a supported backend.
func IsBackend(name string) bool {
	for _, b := range Backends {
		if b == name {
			return true
		}
	}
	return false
}

// Options selects and configures a backend.
type Options struct {
	Backend string
	// Dir is the file backend directory and the parent of the embedded
	// NATS store directory.
	Dir        string
	NATSURL    string
	NATSBucket string
	MySQLDSN   string
	MySQLTable string
}

// Open creates the backend named by opts.Backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendMemory:
		return NewMemory(), nil
	case BackendFile, "":
		return NewFile(opts.Dir)
	case BackendNATS:
		if opts.NATSURL == "" {
			return NewEmbeddedNATS(ctx, filepath.Join(opts.Dir, "nats"), opts.NATSBucket)
		}
		return NewNATS(ctx, opts.NATSURL, opts.NATSBucket)
	case BackendMySQL:
		return NewSQL(ctx, opts.MySQLDSN, opts.MySQLTable)
	default:
		return nil, fmt.Errorf("unknown kv backend %q", opts.Backend)
	}
}

// keyPattern accepts dot-separated tokens of letters, digits, '_' and '-'.
// It is the intersection of what file names and JetStream keys allow.
var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+(\.[A-Za-z0-9_-]+)*$`)

// ValidateKey rejects keys that some backend cannot store.
func ValidateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("invalid key %q: use letters, digits, '_', '-' and '.' separators", key)
	}
	return nil
}
