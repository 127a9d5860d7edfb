// internal/storage/sealed.go
package storage

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var ErrUnsealFailed = errors.New("storage: sealed value could not be opened")

// Sealed encrypts the values of selected keys before they reach the wrapped store.
type Sealed struct {
	inner Store
	key   [32]byte
	keys  map[string]bool
}

func NewSealed(inner Store, secret string, keys ...string) *Sealed {
	s := &Sealed{
		inner: inner,
		key:   sha256.Sum256([]byte(secret)),
		keys:  make(map[string]bool, len(keys)),
	}
	for _, k := range keys {
		s.keys[k] = true
	}
	return s
}

func (s *Sealed) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.inner.Get(ctx, key)
	if err != nil || !s.keys[key] {
		return raw, err
	}

	if len(raw) < nonceSize {
		return nil, ErrUnsealFailed
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])

	out, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return nil, ErrUnsealFailed
	}
	return out, nil
}

func (s *Sealed) Set(ctx context.Context, key string, value []byte) error {
	if !s.keys[key] {
		return s.inner.Set(ctx, key, value)
	}

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], value, &nonce, &s.key)
	return s.inner.Set(ctx, key, sealed)
}

func (s *Sealed) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

// SealedProvider seals the given keys in every namespace it opens.
type SealedProvider struct {
	inner  Provider
	secret string
	keys   []string
}

func NewSealedProvider(inner Provider, secret string, keys ...string) *SealedProvider {
	return &SealedProvider{inner: inner, secret: secret, keys: keys}
}

func (p *SealedProvider) Open(namespace string) Store {
	return NewSealed(p.inner.Open(namespace), p.secret, p.keys...)
}
