// Package service loads and generates the verification log signing key, optionally
// wrapped by a KMS key through gocloud.dev/secrets.
package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"gocloud.dev/secrets"
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"

	cryptoDomain "github.com/medledger/tokenledger/internal/crypto/domain"
)

// localKeyScheme embeds the key itself in the URI. It is meant for development and tests.
const localKeyScheme = "base64key"

// KMSSchemes lists the key URI schemes with a registered keeper driver.
var KMSSchemes = []string{"awskms", "azurekeyvault", "gcpkms", "hashivault", localKeyScheme}

// KMSService opens keepers for KMS key URIs.
type KMSService interface {
	// OpenKeeper opens a keeper for keyURI. The scheme must be one of KMSSchemes.
	OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error)
}

type kmsService struct{}

// NewKMSService creates a new KMS service instance.
func NewKMSService() KMSService {
	return &kmsService{}
}

func (k *kmsService) OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error) {
	scheme, err := kmsScheme(keyURI)
	if err != nil {
		return nil, err
	}

	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		// Driver errors may echo the URI, which for base64key:// is the key itself.
		if scheme == localKeyScheme {
			return nil, fmt.Errorf("failed to open KMS keeper %s", RedactKeyURI(keyURI))
		}
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	return keeper, nil
}

func kmsScheme(keyURI string) (string, error) {
	u, err := url.Parse(keyURI)
	if err != nil || u.Scheme == "" {
		return "", fmt.Errorf("%w: %q is not a key URI", cryptoDomain.ErrUnsupportedKMSScheme, RedactKeyURI(keyURI))
	}
	for _, scheme := range KMSSchemes {
		if u.Scheme == scheme {
			return scheme, nil
		}
	}
	return "", fmt.Errorf("%w: %s (supported: %s)",
		cryptoDomain.ErrUnsupportedKMSScheme, u.Scheme, strings.Join(KMSSchemes, ", "))
}

// RedactKeyURI hides inline key material so a key URI can be logged.
func RedactKeyURI(keyURI string) string {
	if strings.HasPrefix(keyURI, localKeyScheme+"://") {
		return localKeyScheme + "://REDACTED"
	}
	return keyURI
}
