package usecase

import (
	"context"

	ledgerDomain "github.com/medledger/tokenledger/internal/ledger/domain"
)

type indexService struct {
	indexRepo TokenIndexRepository
}

// NewIndexService creates an IndexService over the index repository.
func NewIndexService(indexRepo TokenIndexRepository) IndexService {
	return &indexService{indexRepo: indexRepo}
}

// AppendToIndexes appends to the doctor index first, then the patient index, so index heads
// are always locked in that order.
func (s *indexService) AppendToIndexes(
	ctx context.Context,
	doctorHash, patientHash, pdfHash ledgerDomain.Fingerprint,
) error {
	if _, err := s.indexRepo.Append(ctx, ledgerDomain.DoctorIndex, doctorHash, pdfHash); err != nil {
		return err
	}
	if _, err := s.indexRepo.Append(ctx, ledgerDomain.PatientIndex, patientHash, pdfHash); err != nil {
		return err
	}
	return nil
}

func (s *indexService) GetDoctorTokens(
	ctx context.Context,
	doctorHash ledgerDomain.Fingerprint,
) ([]ledgerDomain.Fingerprint, error) {
	return s.list(ctx, ledgerDomain.DoctorIndex, doctorHash)
}

func (s *indexService) GetPatientTokens(
	ctx context.Context,
	patientHash ledgerDomain.Fingerprint,
) ([]ledgerDomain.Fingerprint, error) {
	return s.list(ctx, ledgerDomain.PatientIndex, patientHash)
}

func (s *indexService) list(
	ctx context.Context,
	kind ledgerDomain.IndexKind,
	key ledgerDomain.Fingerprint,
) ([]ledgerDomain.Fingerprint, error) {
	hashes, err := s.indexRepo.List(ctx, kind, key)
	if err != nil {
		return nil, err
	}
	if hashes == nil {
		hashes = []ledgerDomain.Fingerprint{}
	}
	return hashes, nil
}
