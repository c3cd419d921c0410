// Package domain defines the consultation token ledger model: token records keyed by
// document fingerprint, the doctor and patient indexes over them, verification events
// and the single ledger owner.
package domain

import (
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"strings"
)

// FingerprintSize is the length in bytes of a Fingerprint.
const FingerprintSize = 32

// Fingerprint is a 256-bit content digest. The zero value means absent.
type Fingerprint [FingerprintSize]byte

// ParseFingerprint decodes a 64 character hex string, with an optional 0x prefix.
func ParseFingerprint(s string) (Fingerprint, error) {
	var fp Fingerprint

	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
	}
	if len(s) != FingerprintSize*2 {
		return fp, ErrInvalidFingerprint
	}
	if _, err := hex.Decode(fp[:], []byte(s)); err != nil {
		return Fingerprint{}, ErrInvalidFingerprint
	}
	return fp, nil
}

// FingerprintFromBytes copies a 32 byte slice into a Fingerprint.
func FingerprintFromBytes(b []byte) (Fingerprint, error) {
	var fp Fingerprint
	if len(b) != FingerprintSize {
		return fp, ErrInvalidFingerprint
	}
	copy(fp[:], b)
	return fp, nil
}

// IsZero reports whether the fingerprint is the absent marker.
func (f Fingerprint) IsZero() bool {
	return f == Fingerprint{}
}

// String returns the lowercase hex form.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// MarshalText implements encoding.TextMarshaler. The zero fingerprint encodes as "".
func (f Fingerprint) MarshalText() ([]byte, error) {
	if f.IsZero() {
		return []byte{}, nil
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Fingerprint) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*f = Fingerprint{}
		return nil
	}
	fp, err := ParseFingerprint(string(text))
	if err != nil {
		return err
	}
	*f = fp
	return nil
}

// Value implements driver.Valuer.
func (f Fingerprint) Value() (driver.Value, error) {
	return f[:], nil
}

// Scan implements sql.Scanner.
func (f *Fingerprint) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		fp, err := FingerprintFromBytes(v)
		if err != nil {
			return fmt.Errorf("scan fingerprint: got %d bytes", len(v))
		}
		*f = fp
		return nil
	case string:
		fp, err := FingerprintFromBytes([]byte(v))
		if err != nil {
			return fmt.Errorf("scan fingerprint: got %d bytes", len(v))
		}
		*f = fp
		return nil
	case nil:
		*f = Fingerprint{}
		return nil
	default:
		return fmt.Errorf("scan fingerprint: unsupported type %T", src)
	}
}
