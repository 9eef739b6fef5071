// Package kvstore holds the durable key/value backends behind the offline
// queue. Every backend must finish the write before Set returns.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidKey = errors.New("invalid key")

// Store is the narrow persistence contract the offline queue depends on.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open builds the backend named by kind. path is a directory for "file" and a
// database file for "sqlite"; it is ignored for "memory".
func Open(kind, path string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case BackendMemory:
		return NewMemory(), nil
	case BackendFile, "":
		return NewFile(path)
	case BackendSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown queue backend %q", kind)
	}
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	return nil
}
