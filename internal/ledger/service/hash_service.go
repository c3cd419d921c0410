package service

import (
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/medledger/tokenledger/internal/ledger/domain"
)

type hashService struct{}

// NewHashService creates a SHA-256 HashService.
func NewHashService() HashService {
	return &hashService{}
}

func (h *hashService) DocumentFingerprint(r io.Reader) (domain.Fingerprint, error) {
	hasher := sha256.New()
	if _, err := io.Copy(hasher, r); err != nil {
		return domain.Fingerprint{}, fmt.Errorf("failed to read document: %w", err)
	}

	var fp domain.Fingerprint
	copy(fp[:], hasher.Sum(nil))
	return fp, nil
}

func (h *hashService) IdentifierFingerprint(identifier string) domain.Fingerprint {
	return sha256.Sum256([]byte(identifier))
}
