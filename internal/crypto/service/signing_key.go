package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	cryptoDomain "github.com/medledger/tokenledger/internal/crypto/domain"
)

// SigningKeySource is where the signing key comes from. At most one of Key and
// Ciphertext may be set; when neither is, verification events are stored unsigned.
type SigningKeySource struct {
	// Key is the base64 encoded plain key.
	Key string
	// Ciphertext is the base64 encoded key wrapped by the KMS key at KMSKeyURI.
	Ciphertext string
	KMSKeyURI  string
}

// LoadSigningKey resolves the signing key. It returns nil, nil when signing is disabled.
func LoadSigningKey(ctx context.Context, kms KMSService, source SigningKeySource) ([]byte, error) {
	plain := strings.TrimSpace(source.Key)
	wrapped := strings.TrimSpace(source.Ciphertext)

	switch {
	case plain != "" && wrapped != "":
		return nil, cryptoDomain.ErrConflictingSigningKeys
	case plain != "":
		key, err := base64.StdEncoding.DecodeString(plain)
		if err != nil {
			return nil, cryptoDomain.ErrInvalidKeyEncoding
		}
		return cryptoDomain.CheckSigningKey(key)
	case wrapped != "":
		return unwrapSigningKey(ctx, kms, wrapped, source.KMSKeyURI)
	default:
		return nil, nil
	}
}

func unwrapSigningKey(ctx context.Context, kms KMSService, wrapped, keyURI string) ([]byte, error) {
	if keyURI == "" {
		return nil, cryptoDomain.ErrKMSKeyURINotSet
	}

	ciphertext, err := base64.StdEncoding.DecodeString(wrapped)
	if err != nil {
		return nil, cryptoDomain.ErrInvalidKeyEncoding
	}

	keeper, err := kms.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = keeper.Close()
	}()

	key, err := keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoDomain.ErrDecryptionFailed, err)
	}
	return cryptoDomain.CheckSigningKey(key)
}

// GeneratedSigningKey holds a fresh key in its configured form: Ciphertext when a KMS
// key was used, Key otherwise.
type GeneratedSigningKey struct {
	Key        string `json:"verification_signing_key,omitempty"`
	Ciphertext string `json:"verification_signing_key_ciphertext,omitempty"`
	KMSKeyURI  string `json:"kms_key_uri,omitempty"`
}

// GenerateSigningKey creates a random signing key and wraps it with the KMS key at
// kmsKeyURI when one is given. The plain key material is zeroed before returning.
func GenerateSigningKey(ctx context.Context, kms KMSService, kmsKeyURI string) (GeneratedSigningKey, error) {
	key := make([]byte, cryptoDomain.SigningKeySize)
	defer cryptoDomain.Zero(key)

	if _, err := rand.Read(key); err != nil {
		return GeneratedSigningKey{}, fmt.Errorf("failed to generate signing key: %w", err)
	}

	if kmsKeyURI == "" {
		return GeneratedSigningKey{Key: base64.StdEncoding.EncodeToString(key)}, nil
	}

	keeper, err := kms.OpenKeeper(ctx, kmsKeyURI)
	if err != nil {
		return GeneratedSigningKey{}, err
	}
	defer func() {
		_ = keeper.Close()
	}()

	ciphertext, err := keeper.Encrypt(ctx, key)
	if err != nil {
		return GeneratedSigningKey{}, fmt.Errorf("failed to encrypt signing key with KMS: %w", err)
	}

	return GeneratedSigningKey{
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
		KMSKeyURI:  kmsKeyURI,
	}, nil
}
