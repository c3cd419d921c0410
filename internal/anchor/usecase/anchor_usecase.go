// Package usecase publishes anchors for stored token records and tracks their receipts.
package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/medledger/tokenledger/internal/anchor/domain"
	"github.com/medledger/tokenledger/internal/anchor/service"
	apperrors "github.com/medledger/tokenledger/internal/errors"
	ledgerDomain "github.com/medledger/tokenledger/internal/ledger/domain"
	"github.com/medledger/tokenledger/internal/metrics"
	outboxDomain "github.com/medledger/tokenledger/internal/outbox/domain"
)

// ReceiptRepository persists anchor receipts.
type ReceiptRepository interface {
	Create(ctx context.Context, receipt *domain.Receipt) error
	ListByPDFHash(ctx context.Context, pdfHash ledgerDomain.Fingerprint) ([]*domain.Receipt, error)
}

// AnchorUseCase handles anchor.requested outbox events and exposes the stored receipts.
type AnchorUseCase interface {
	Process(ctx context.Context, event *outboxDomain.OutboxEvent) error
	ListReceipts(ctx context.Context, pdfHash ledgerDomain.Fingerprint) ([]*domain.Receipt, error)
}

type anchorUseCase struct {
	publishers  []service.Publisher
	receiptRepo ReceiptRepository
	metrics     metrics.BusinessMetrics
	logger      *slog.Logger

	// Receipt reads and writes share the relay transaction, which serves one statement at a time.
	dbMu sync.Mutex
}

// NewAnchorUseCase creates an AnchorUseCase publishing to every given publisher.
func NewAnchorUseCase(
	publishers []service.Publisher,
	receiptRepo ReceiptRepository,
	businessMetrics metrics.BusinessMetrics,
	logger *slog.Logger,
) (AnchorUseCase, error) {
	if len(publishers) == 0 {
		return nil, domain.ErrNoPublishers
	}
	if businessMetrics == nil {
		businessMetrics = metrics.NewNoOpBusinessMetrics()
	}

	return &anchorUseCase{
		publishers:  publishers,
		receiptRepo: receiptRepo,
		metrics:     businessMetrics,
		logger:      logger,
	}, nil
}

// Process publishes the anchor to every publisher that has not yet acknowledged it.
// Successful receipts are stored even when another publisher fails, so a retry only
// repeats the failed publishers.
func (a *anchorUseCase) Process(ctx context.Context, event *outboxDomain.OutboxEvent) error {
	if event.EventType != domain.EventTypeAnchorRequested {
		return fmt.Errorf("unexpected event type %q", event.EventType)
	}

	var anchor domain.Anchor
	if err := json.Unmarshal([]byte(event.Payload), &anchor); err != nil {
		return apperrors.Wrap(err, "failed to decode anchor payload")
	}
	if anchor.PDFHash.IsZero() {
		return errors.New("anchor payload has no pdf hash")
	}

	done, err := a.anchoredBy(ctx, anchor.PDFHash)
	if err != nil {
		return err
	}

	var errs []error
	for _, publisher := range a.publishers {
		name := publisher.Name()
		if done[name] {
			continue
		}

		receipt, err := publisher.Publish(ctx, anchor)
		if err != nil {
			a.metrics.RecordAnchorPublish(ctx, name, "error")
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		a.metrics.RecordAnchorPublish(ctx, name, "success")

		if err := a.storeReceipt(ctx, &receipt); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}

		a.logger.Debug("anchor receipt stored",
			slog.String("pdf_hash", anchor.PDFHash.String()),
			slog.String("publisher", name),
			slog.String("reference", receipt.Reference),
		)
	}

	return errors.Join(errs...)
}

// ListReceipts returns the receipts stored for a record.
func (a *anchorUseCase) ListReceipts(
	ctx context.Context,
	pdfHash ledgerDomain.Fingerprint,
) ([]*domain.Receipt, error) {
	return a.receiptRepo.ListByPDFHash(ctx, pdfHash)
}

func (a *anchorUseCase) anchoredBy(ctx context.Context, pdfHash ledgerDomain.Fingerprint) (map[string]bool, error) {
	a.dbMu.Lock()
	defer a.dbMu.Unlock()

	receipts, err := a.receiptRepo.ListByPDFHash(ctx, pdfHash)
	if err != nil {
		return nil, err
	}

	done := make(map[string]bool, len(receipts))
	for _, receipt := range receipts {
		done[receipt.Publisher] = true
	}
	return done, nil
}

func (a *anchorUseCase) storeReceipt(ctx context.Context, receipt *domain.Receipt) error {
	a.dbMu.Lock()
	defer a.dbMu.Unlock()

	return a.receiptRepo.Create(ctx, receipt)
}
