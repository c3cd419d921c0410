// Package domain defines the key material rules for the verification log signing key.
package domain

import (
	"context"
	"fmt"
)

// SigningKeySize is the length in bytes of a verification log signing key.
const SigningKeySize = 32

// KMSKeeper wraps and unwraps key material with a KMS key. *secrets.Keeper implements it.
type KMSKeeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// CheckSigningKey returns key unchanged when it has SigningKeySize bytes. Otherwise the
// key is zeroed and ErrInvalidKeySize is returned.
func CheckSigningKey(key []byte) ([]byte, error) {
	if len(key) == SigningKeySize {
		return key, nil
	}
	size := len(key)
	Zero(key)
	return nil, fmt.Errorf("%w: signing key must be %d bytes, got %d", ErrInvalidKeySize, SigningKeySize, size)
}

// Zero overwrites key material in place.
func Zero(b []byte) {
	clear(b)
}
