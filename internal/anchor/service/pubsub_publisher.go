package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gocloud.dev/pubsub"

	"github.com/medledger/tokenledger/internal/anchor/domain"
	apperrors "github.com/medledger/tokenledger/internal/errors"
)

// Message metadata keys set on every published anchor.
const (
	MetadataAnchorID    = "anchor_id"
	MetadataAnchorType  = "anchor_type"
	MetadataPDFHash     = "pdf_hash"
	MetadataTokenNumber = "token_number"
)

// PubSubPublisher sends anchors as JSON messages to a gocloud.dev/pubsub topic.
type PubSubPublisher struct {
	topic *pubsub.Topic
	now   func() time.Time
}

// NewPubSubPublisher wraps an open topic. The caller keeps ownership of the topic
// unless it closes the publisher.
func NewPubSubPublisher(topic *pubsub.Topic) *PubSubPublisher {
	return &PubSubPublisher{topic: topic, now: time.Now}
}

// OpenPubSubPublisher opens the topic at topicURL (e.g. "mem://anchors").
func OpenPubSubPublisher(ctx context.Context, topicURL string) (*PubSubPublisher, error) {
	topic, err := pubsub.OpenTopic(ctx, topicURL)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open anchor topic")
	}
	return NewPubSubPublisher(topic), nil
}

// Name returns "pubsub".
func (p *PubSubPublisher) Name() string {
	return PubSubPublisherName
}

// Publish sends the anchor. The receipt reference is the anchor_id metadata value, which
// consumers use to drop redelivered messages.
func (p *PubSubPublisher) Publish(ctx context.Context, anchor domain.Anchor) (domain.Receipt, error) {
	body, err := json.Marshal(anchor)
	if err != nil {
		return domain.Receipt{}, apperrors.Wrap(err, "failed to encode anchor")
	}

	anchorID := uuid.Must(uuid.NewV7()).String()
	msg := &pubsub.Message{
		Body: body,
		Metadata: map[string]string{
			MetadataAnchorID:    anchorID,
			MetadataAnchorType:  anchor.Type,
			MetadataPDFHash:     anchor.PDFHash.String(),
			MetadataTokenNumber: strconv.FormatUint(anchor.TokenNumber, 10),
		},
	}

	if err := p.topic.Send(ctx, msg); err != nil {
		return domain.Receipt{}, apperrors.Wrap(err, "failed to send anchor message")
	}

	return domain.Receipt{
		PDFHash:    anchor.PDFHash,
		Publisher:  PubSubPublisherName,
		Reference:  anchorID,
		AnchoredAt: p.now().UTC(),
	}, nil
}

// Close flushes pending messages and shuts the topic down.
func (p *PubSubPublisher) Close(ctx context.Context) error {
	return p.topic.Shutdown(ctx)
}
