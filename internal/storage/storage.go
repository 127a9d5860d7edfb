// internal/storage/storage.go
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Keys of a storefront session's durable storage.
const (
	KeyCart          = "cart-storage"
	KeyUserID        = "userId"
	KeyToken         = "token"
	KeyLocale        = "locale"
	KeyAppliedCoupon = "applied-coupon"
	KeyLastOrder     = "last-order"
)

var ErrNotFound = errors.New("storage: key not found")

// Store is one session's persisted key/value space.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Provider opens the Store of a session namespace.
type Provider interface {
	Open(namespace string) Store
}

// Purger drops data not written since cutoff and reports how much it removed.
type Purger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// GetJSON decodes key into v. Found is false when the key is absent.
func GetJSON(ctx context.Context, s Store, key string, v interface{}) (bool, error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func SetJSON(ctx context.Context, s Store, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}

// GetString returns "" for absent keys.
func GetString(ctx context.Context, s Store, key string) (string, error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func SetString(ctx context.Context, s Store, key, value string) error {
	return s.Set(ctx, key, []byte(value))
}
