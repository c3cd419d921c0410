package app

import (
	"context"
	"fmt"
	"log/slog"

	cryptoService "github.com/medledger/tokenledger/internal/crypto/service"
)

// KMSService returns the KMS service.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService
}

// SigningKey returns the verification log signing key, or nil when none is configured.
func (c *Container) SigningKey() ([]byte, error) {
	var err error
	c.signingKeyInit.Do(func() {
		c.signingKey, err = c.initSigningKey()
		if err != nil {
			c.initErrors["signingKey"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["signingKey"]; exists {
		return nil, storedErr
	}
	return c.signingKey, nil
}

func (c *Container) initSigningKey() ([]byte, error) {
	key, err := cryptoService.LoadSigningKey(context.Background(), c.KMSService(), cryptoService.SigningKeySource{
		Key:        c.config.VerificationSigningKey,
		Ciphertext: c.config.VerificationSigningKeyCiphertext,
		KMSKeyURI:  c.config.KMSKeyURI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load verification signing key: %w", err)
	}

	if key == nil {
		c.Logger().Warn("verification signing key not configured, verification events are stored unsigned")
		return nil, nil
	}

	if c.config.VerificationSigningKeyCiphertext != "" {
		c.Logger().Info("verification signing key unwrapped",
			slog.String("kms_key_uri", cryptoService.RedactKeyURI(c.config.KMSKeyURI)))
	}
	return key, nil
}
