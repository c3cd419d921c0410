// Package service provides anchor publishers: exporters that copy a token record's
// fingerprint to an external immutable ledger.
package service

import (
	"context"

	"github.com/medledger/tokenledger/internal/anchor/domain"
)

// Publisher names.
const (
	PubSubPublisherName  = "pubsub"
	JournalPublisherName = "journal"
	LogPublisherName     = "log"
)

// Publisher exports an anchor and returns the receipt of the external ledger.
// Publishing the same anchor twice must be safe.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, anchor domain.Anchor) (domain.Receipt, error)
}
