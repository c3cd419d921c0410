package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/medledger/tokenledger/internal/ledger/domain"
)

const signingKeyInfo = "verification-log-signing-v1"

type verificationSigner struct {
	masterKey []byte
}

// NewVerificationSigner creates an HMAC-SHA256 signer whose signing key is derived from
// masterKey with HKDF-SHA256. An empty masterKey yields a signer that leaves events unsigned.
func NewVerificationSigner(masterKey []byte) VerificationSigner {
	if len(masterKey) == 0 {
		return &verificationSigner{}
	}
	key := make([]byte, len(masterKey))
	copy(key, masterKey)
	return &verificationSigner{masterKey: key}
}

func (s *verificationSigner) Enabled() bool {
	return len(s.masterKey) > 0
}

func (s *verificationSigner) deriveSigningKey() ([]byte, error) {
	reader := hkdf.New(sha256.New, s.masterKey, nil, []byte(signingKeyInfo))

	signingKey := make([]byte, 32)
	if _, err := io.ReadFull(reader, signingKey); err != nil {
		return nil, err
	}
	return signingKey, nil
}

// canonicalize encodes id || pdf_hash || verifier || found || timestamp (unix micro).
// The verifier is length-prefixed.
func canonicalize(event *domain.VerificationEvent) []byte {
	buf := make([]byte, 0, 16+domain.FingerprintSize+4+len(event.Verifier)+1+8)

	buf = append(buf, event.ID[:]...)
	buf = append(buf, event.PDFHash[:]...)
	buf = appendLengthPrefixed(buf, []byte(event.Verifier))
	if event.Found {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = binary.BigEndian.AppendUint64(buf, uint64(event.Timestamp.UnixMicro()))

	return buf
}

// appendLengthPrefixed adds a 4-byte big-endian length prefix followed by data.
func appendLengthPrefixed(buf []byte, data []byte) []byte {
	if uint64(len(data)) > 0xFFFFFFFF {
		panic("data length exceeds uint32 max")
	}
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(data)))
	return append(buf, data...)
}

func (s *verificationSigner) Sign(event *domain.VerificationEvent) ([]byte, error) {
	if !s.Enabled() {
		return nil, nil
	}

	signingKey, err := s.deriveSigningKey()
	if err != nil {
		return nil, fmt.Errorf("failed to derive signing key: %w", err)
	}
	defer zero(signingKey)

	mac := hmac.New(sha256.New, signingKey)
	mac.Write(canonicalize(event))
	return mac.Sum(nil), nil
}

func (s *verificationSigner) Verify(event *domain.VerificationEvent) error {
	if !s.Enabled() || !event.IsSigned() {
		return domain.ErrSignatureInvalid
	}

	expected, err := s.Sign(event)
	if err != nil {
		return fmt.Errorf("failed to compute expected signature: %w", err)
	}
	if !hmac.Equal(event.Signature, expected) {
		return domain.ErrSignatureInvalid
	}
	return nil
}

// zero overwrites key material.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
