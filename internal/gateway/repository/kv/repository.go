package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Store is a flat key-value slot store. Put overwrites; there is no merge
// and no versioning.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

var ErrNotFound = errors.New("kv: key not found")

func normalizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("key is required")
	}
	return key, nil
}
