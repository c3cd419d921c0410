package usecase

import (
	"bytes"
	"context"
	"sync"

	"github.com/google/uuid"

	ledgerDomain "github.com/medledger/tokenledger/internal/ledger/domain"
)

// memoryStore is an in-memory ledger backing used to check behavior across calls.
// A single mutex stands in for the transaction.
type memoryStore struct {
	mu      sync.Mutex
	records map[ledgerDomain.Fingerprint]ledgerDomain.TokenRecord
	indexes map[ledgerDomain.IndexKind]map[ledgerDomain.Fingerprint][]ledgerDomain.Fingerprint
	events  []*ledgerDomain.VerificationEvent
	owner   *ledgerDomain.Owner
	history []*ledgerDomain.OwnershipTransfer
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		records: make(map[ledgerDomain.Fingerprint]ledgerDomain.TokenRecord),
		indexes: map[ledgerDomain.IndexKind]map[ledgerDomain.Fingerprint][]ledgerDomain.Fingerprint{
			ledgerDomain.DoctorIndex:  {},
			ledgerDomain.PatientIndex: {},
		},
	}
}

func (s *memoryStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx)
}

type memoryRecords struct{ s *memoryStore }

func (r memoryRecords) Create(ctx context.Context, record *ledgerDomain.TokenRecord) error {
	if _, ok := r.s.records[record.PDFHash]; ok {
		return ledgerDomain.ErrDuplicateHash
	}
	r.s.records[record.PDFHash] = *record
	return nil
}

func (r memoryRecords) Get(ctx context.Context, pdfHash ledgerDomain.Fingerprint) (*ledgerDomain.TokenRecord, error) {
	record, ok := r.s.records[pdfHash]
	if !ok {
		return nil, ledgerDomain.ErrTokenRecordNotFound
	}
	return &record, nil
}

func (r memoryRecords) Count(ctx context.Context) (uint64, error) {
	return uint64(len(r.s.records)), nil
}

type memoryIndexes struct{ s *memoryStore }

func (i memoryIndexes) Append(
	ctx context.Context,
	kind ledgerDomain.IndexKind,
	key, pdfHash ledgerDomain.Fingerprint,
) (uint64, error) {
	i.s.indexes[kind][key] = append(i.s.indexes[kind][key], pdfHash)
	return uint64(len(i.s.indexes[kind][key])), nil
}

func (i memoryIndexes) List(
	ctx context.Context,
	kind ledgerDomain.IndexKind,
	key ledgerDomain.Fingerprint,
) ([]ledgerDomain.Fingerprint, error) {
	return append([]ledgerDomain.Fingerprint(nil), i.s.indexes[kind][key]...), nil
}

type memoryEvents struct{ s *memoryStore }

func (e memoryEvents) Create(ctx context.Context, event *ledgerDomain.VerificationEvent) error {
	e.s.events = append(e.s.events, event)
	return nil
}

func (e memoryEvents) List(
	ctx context.Context,
	filter ledgerDomain.VerificationFilter,
	offset, limit int,
) ([]*ledgerDomain.VerificationEvent, error) {
	matched := make([]*ledgerDomain.VerificationEvent, 0)
	for i := len(e.s.events) - 1; i >= 0; i-- {
		if filter.PDFHash.IsZero() || e.s.events[i].PDFHash == filter.PDFHash {
			matched = append(matched, e.s.events[i])
		}
	}
	if offset >= len(matched) {
		return []*ledgerDomain.VerificationEvent{}, nil
	}
	end := min(offset+limit, len(matched))
	return matched[offset:end], nil
}

func (e memoryEvents) ListBefore(
	ctx context.Context,
	before uuid.UUID,
	limit int,
) ([]*ledgerDomain.VerificationEvent, error) {
	matched := make([]*ledgerDomain.VerificationEvent, 0, limit)
	for i := len(e.s.events) - 1; i >= 0 && len(matched) < limit; i-- {
		if bytes.Compare(e.s.events[i].ID[:], before[:]) < 0 {
			matched = append(matched, e.s.events[i])
		}
	}
	return matched, nil
}

type memoryOwners struct{ s *memoryStore }

func (o memoryOwners) Get(ctx context.Context) (*ledgerDomain.Owner, error) {
	if o.s.owner == nil {
		return nil, ledgerDomain.ErrOwnerNotInitialized
	}
	owner := *o.s.owner
	return &owner, nil
}

func (o memoryOwners) GetForUpdate(ctx context.Context) (*ledgerDomain.Owner, error) {
	return o.Get(ctx)
}

func (o memoryOwners) Create(ctx context.Context, owner *ledgerDomain.Owner) (bool, error) {
	if o.s.owner != nil {
		return false, nil
	}
	stored := *owner
	o.s.owner = &stored
	return true, nil
}

func (o memoryOwners) Update(ctx context.Context, owner *ledgerDomain.Owner) error {
	stored := *owner
	o.s.owner = &stored
	return nil
}

func (o memoryOwners) CreateTransfer(ctx context.Context, transfer *ledgerDomain.OwnershipTransfer) error {
	o.s.history = append(o.s.history, transfer)
	return nil
}

func (o memoryOwners) ListTransfers(ctx context.Context) ([]*ledgerDomain.OwnershipTransfer, error) {
	return o.s.history, nil
}
