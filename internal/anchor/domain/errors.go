package domain

import (
	"github.com/medledger/tokenledger/internal/errors"
)

// Anchoring errors.
var (
	// ErrJournalCorrupted indicates the anchor journal hash chain is broken.
	ErrJournalCorrupted = errors.New("anchor journal is corrupted")

	// ErrNoPublishers indicates anchoring was enabled with nothing to publish to.
	ErrNoPublishers = errors.New("no anchor publishers configured")
)
