package domain

import (
	"strings"
	"time"
)

// Owner is the single identity allowed to perform privileged ledger operations.
type Owner struct {
	Identity  string
	UpdatedAt time.Time
}

// OwnershipTransfer is an entry in the ownership history.
type OwnershipTransfer struct {
	PreviousOwner string
	NewOwner      string
	TransferredAt time.Time
}

// CanAdminister reports whether caller is the owner. Identities compare exactly.
func (o *Owner) CanAdminister(caller string) bool {
	return o != nil && o.Identity != "" && caller == o.Identity
}

// ValidIdentity reports whether id is usable as an owner identity.
func ValidIdentity(id string) bool {
	return strings.TrimSpace(id) != ""
}

// ValidOwnerIdentity reports whether id can become the owner. Callers are matched against
// trimmed header values, so an identity with surrounding whitespace could never administer.
func ValidOwnerIdentity(id string) bool {
	return ValidIdentity(id) && id == strings.TrimSpace(id)
}
