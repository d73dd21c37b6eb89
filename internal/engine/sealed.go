package engine

import (
	"context"

	"github.com/celerix-dev/certify-one/internal/vault"
	pkgengine "github.com/celerix-dev/certify-one/pkg/engine"
	"github.com/pkg/errors"
)

var sealedSlotNames = []string{pkgengine.SlotUserData, pkgengine.SlotAuthToken}

// SealedSlots encrypts a fixed set of slots before they reach the wrapped
// store. Other slots pass through untouched.
type SealedSlots struct {
	inner  SlotStore
	key    []byte
	sealed map[string]bool
}

func NewSealedSlots(inner SlotStore, key []byte, names ...string) *SealedSlots {
	sealed := make(map[string]bool, len(names))
	for _, n := range names {
		sealed[n] = true
	}
	return &SealedSlots{inner: inner, key: key, sealed: sealed}
}

func (s *SealedSlots) Save(ctx context.Context, name string, data []byte) error {
	if !s.sealed[name] {
		return s.inner.Save(ctx, name, data)
	}
	ciphertext, err := vault.Encrypt(string(data), s.key)
	if err != nil {
		return errors.Wrapf(err, "seal slot %s", name)
	}
	return s.inner.Save(ctx, name, []byte(ciphertext))
}

func (s *SealedSlots) Load(ctx context.Context, name string) ([]byte, error) {
	data, err := s.inner.Load(ctx, name)
	if err != nil || !s.sealed[name] {
		return data, err
	}
	plaintext, err := vault.Decrypt(string(data), s.key)
	if err != nil {
		return nil, errors.Wrapf(err, "unseal slot %s", name)
	}
	return []byte(plaintext), nil
}

func (s *SealedSlots) Remove(ctx context.Context, name string) error {
	return s.inner.Remove(ctx, name)
}

func (s *SealedSlots) Names(ctx context.Context) ([]string, error) {
	return s.inner.Names(ctx)
}

func (s *SealedSlots) Close() error {
	return s.inner.Close()
}
