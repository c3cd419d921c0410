package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/medledger/tokenledger/internal/anchor/domain"
)

// LogPublisher writes anchors to the application log. It is used when no external
// ledger is configured so anchored records still leave a trace.
type LogPublisher struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger, now: time.Now}
}

// Name returns "log".
func (p *LogPublisher) Name() string {
	return LogPublisherName
}

// Publish logs the anchor.
func (p *LogPublisher) Publish(ctx context.Context, anchor domain.Anchor) (domain.Receipt, error) {
	p.logger.InfoContext(ctx, "anchor published",
		slog.String("pdf_hash", anchor.PDFHash.String()),
		slog.Uint64("token_number", anchor.TokenNumber),
		slog.Time("timestamp", anchor.Timestamp),
	)

	return domain.Receipt{
		PDFHash:    anchor.PDFHash,
		Publisher:  LogPublisherName,
		Reference:  anchor.PDFHash.String(),
		AnchoredAt: p.now().UTC(),
	}, nil
}
