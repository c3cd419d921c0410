package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	_ "gocloud.dev/pubsub/mempubsub"

	anchorDomain "github.com/medledger/tokenledger/internal/anchor/domain"
	anchorHTTP "github.com/medledger/tokenledger/internal/anchor/http"
	anchorRepository "github.com/medledger/tokenledger/internal/anchor/repository"
	anchorService "github.com/medledger/tokenledger/internal/anchor/service"
	anchorUseCase "github.com/medledger/tokenledger/internal/anchor/usecase"
	outboxRepository "github.com/medledger/tokenledger/internal/outbox/repository"
	outboxUseCase "github.com/medledger/tokenledger/internal/outbox/usecase"
)

// ErrAnchoringDisabled is returned when the relay is requested while ANCHOR_ENABLED is false.
var ErrAnchoringDisabled = errors.New("anchoring is disabled (set ANCHOR_ENABLED=true)")

// OutboxRepository returns the outbox event repository for the configured driver.
func (c *Container) OutboxRepository() (outboxUseCase.OutboxEventRepository, error) {
	var err error
	c.outboxRepoInit.Do(func() {
		c.outboxRepo, err = c.initOutboxRepository()
		if err != nil {
			c.initErrors["outboxRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["outboxRepo"]; exists {
		return nil, storedErr
	}
	return c.outboxRepo, nil
}

// ReceiptRepository returns the anchor receipt repository for the configured driver.
func (c *Container) ReceiptRepository() (anchorUseCase.ReceiptRepository, error) {
	var err error
	c.receiptRepoInit.Do(func() {
		c.receiptRepo, err = c.initReceiptRepository()
		if err != nil {
			c.initErrors["receiptRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["receiptRepo"]; exists {
		return nil, storedErr
	}
	return c.receiptRepo, nil
}

// AnchorPublishers returns the configured anchor publishers: the journal when
// ANCHOR_JOURNAL_PATH is set, the topic when ANCHOR_TOPIC_URL is set, and the log
// publisher when neither is.
func (c *Container) AnchorPublishers() ([]anchorService.Publisher, error) {
	var err error
	c.anchorPublishersInit.Do(func() {
		c.anchorPublishers, err = c.initAnchorPublishers()
		if err != nil {
			c.initErrors["anchorPublishers"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["anchorPublishers"]; exists {
		return nil, storedErr
	}
	return c.anchorPublishers, nil
}

// AnchorUseCase returns the anchor use case.
func (c *Container) AnchorUseCase() (anchorUseCase.AnchorUseCase, error) {
	var err error
	c.anchorUseCaseInit.Do(func() {
		c.anchorUseCase, err = c.initAnchorUseCase()
		if err != nil {
			c.initErrors["anchorUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["anchorUseCase"]; exists {
		return nil, storedErr
	}
	return c.anchorUseCase, nil
}

// OutboxUseCase returns the outbox relay, wired to the anchor use case.
func (c *Container) OutboxUseCase() (outboxUseCase.UseCase, error) {
	var err error
	c.outboxUseCaseInit.Do(func() {
		c.outboxUseCase, err = c.initOutboxUseCase()
		if err != nil {
			c.initErrors["outboxUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["outboxUseCase"]; exists {
		return nil, storedErr
	}
	return c.outboxUseCase, nil
}

// AnchorHandler returns the anchor receipt handler, or nil when anchoring is disabled.
func (c *Container) AnchorHandler() (*anchorHTTP.AnchorHandler, error) {
	if !c.config.AnchorEnabled {
		return nil, nil
	}

	useCase, err := c.AnchorUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get anchor use case for anchor handler: %w", err)
	}
	return anchorHTTP.NewAnchorHandler(useCase, c.Logger()), nil
}

func (c *Container) initOutboxRepository() (outboxUseCase.OutboxEventRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for outbox repository: %w", err)
	}

	return repositoryFor(c.config.DBDriver,
		func() outboxUseCase.OutboxEventRepository {
			return outboxRepository.NewPostgreSQLOutboxEventRepository(db)
		},
		func() outboxUseCase.OutboxEventRepository {
			return outboxRepository.NewMySQLOutboxEventRepository(db)
		},
	)
}

func (c *Container) initReceiptRepository() (anchorUseCase.ReceiptRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for receipt repository: %w", err)
	}

	return repositoryFor(c.config.DBDriver,
		func() anchorUseCase.ReceiptRepository {
			return anchorRepository.NewPostgreSQLReceiptRepository(db)
		},
		func() anchorUseCase.ReceiptRepository {
			return anchorRepository.NewMySQLReceiptRepository(db)
		},
	)
}

func (c *Container) initAnchorPublishers() ([]anchorService.Publisher, error) {
	logger := c.Logger()
	publishers := make([]anchorService.Publisher, 0, 2)

	if path := c.config.AnchorJournalPath; path != "" {
		journal, err := anchorService.OpenJournalPublisher(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open anchor journal: %w", err)
		}
		c.journalPublisher = journal
		publishers = append(publishers, journal)
		logger.Info("anchor journal opened", slog.String("path", path))
	}

	if topicURL := c.config.AnchorTopicURL; topicURL != "" {
		topic, err := anchorService.OpenPubSubPublisher(context.Background(), topicURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open anchor topic: %w", err)
		}
		c.pubSubPublisher = topic
		publishers = append(publishers, topic)
		logger.Info("anchor topic opened", slog.String("url", topicURL))
	}

	if len(publishers) == 0 {
		publishers = append(publishers, anchorService.NewLogPublisher(logger))
	}

	return publishers, nil
}

func (c *Container) initAnchorUseCase() (anchorUseCase.AnchorUseCase, error) {
	publishers, err := c.AnchorPublishers()
	if err != nil {
		return nil, fmt.Errorf("failed to get publishers for anchor use case: %w", err)
	}

	receiptRepo, err := c.ReceiptRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt repository for anchor use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for anchor use case: %w", err)
	}

	return anchorUseCase.NewAnchorUseCase(publishers, receiptRepo, businessMetrics, c.Logger())
}

func (c *Container) initOutboxUseCase() (outboxUseCase.UseCase, error) {
	if !c.config.AnchorEnabled {
		return nil, ErrAnchoringDisabled
	}

	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for outbox use case: %w", err)
	}

	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for outbox use case: %w", err)
	}

	anchorUC, err := c.AnchorUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get anchor use case for outbox use case: %w", err)
	}

	dispatcher := outboxUseCase.NewDispatcher()
	dispatcher.Register(anchorDomain.EventTypeAnchorRequested, anchorUC)

	useCaseConfig := outboxUseCase.Config{
		Interval:    c.config.OutboxInterval,
		BatchSize:   c.config.OutboxBatchSize,
		MaxRetries:  c.config.OutboxMaxRetries,
		Concurrency: c.config.OutboxConcurrency,
	}

	return outboxUseCase.NewOutboxUseCase(useCaseConfig, txManager, outboxRepo, dispatcher, c.Logger()), nil
}
