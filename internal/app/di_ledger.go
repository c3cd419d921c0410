package app

import (
	"context"
	"errors"
	"fmt"

	ledgerDomain "github.com/medledger/tokenledger/internal/ledger/domain"
	ledgerHTTP "github.com/medledger/tokenledger/internal/ledger/http"
	ledgerRepository "github.com/medledger/tokenledger/internal/ledger/repository"
	ledgerService "github.com/medledger/tokenledger/internal/ledger/service"
	ledgerUseCase "github.com/medledger/tokenledger/internal/ledger/usecase"
)

// TokenRecordRepository returns the token record repository for the configured driver.
func (c *Container) TokenRecordRepository() (ledgerUseCase.TokenRecordRepository, error) {
	var err error
	c.tokenRecordRepoInit.Do(func() {
		c.tokenRecordRepo, err = c.initTokenRecordRepository()
		if err != nil {
			c.initErrors["tokenRecordRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tokenRecordRepo"]; exists {
		return nil, storedErr
	}
	return c.tokenRecordRepo, nil
}

// TokenIndexRepository returns the doctor/patient index repository for the configured driver.
func (c *Container) TokenIndexRepository() (ledgerUseCase.TokenIndexRepository, error) {
	var err error
	c.tokenIndexRepoInit.Do(func() {
		c.tokenIndexRepo, err = c.initTokenIndexRepository()
		if err != nil {
			c.initErrors["tokenIndexRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tokenIndexRepo"]; exists {
		return nil, storedErr
	}
	return c.tokenIndexRepo, nil
}

// VerificationEventRepository returns the verification log repository for the configured driver.
func (c *Container) VerificationEventRepository() (ledgerUseCase.VerificationEventRepository, error) {
	var err error
	c.verificationEventRepoInit.Do(func() {
		c.verificationEventRepo, err = c.initVerificationEventRepository()
		if err != nil {
			c.initErrors["verificationEventRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["verificationEventRepo"]; exists {
		return nil, storedErr
	}
	return c.verificationEventRepo, nil
}

// OwnerRepository returns the owner repository for the configured driver.
func (c *Container) OwnerRepository() (ledgerUseCase.OwnerRepository, error) {
	var err error
	c.ownerRepoInit.Do(func() {
		c.ownerRepo, err = c.initOwnerRepository()
		if err != nil {
			c.initErrors["ownerRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["ownerRepo"]; exists {
		return nil, storedErr
	}
	return c.ownerRepo, nil
}

// LedgerUseCase returns the hash registry use case.
func (c *Container) LedgerUseCase() (ledgerUseCase.LedgerUseCase, error) {
	var err error
	c.ledgerUseCaseInit.Do(func() {
		c.ledgerUseCase, err = c.initLedgerUseCase()
		if err != nil {
			c.initErrors["ledgerUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["ledgerUseCase"]; exists {
		return nil, storedErr
	}
	return c.ledgerUseCase, nil
}

// VerificationUseCase returns the verification log use case.
func (c *Container) VerificationUseCase() (ledgerUseCase.VerificationUseCase, error) {
	var err error
	c.verificationUseCaseInit.Do(func() {
		c.verificationUseCase, err = c.initVerificationUseCase()
		if err != nil {
			c.initErrors["verificationUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["verificationUseCase"]; exists {
		return nil, storedErr
	}
	return c.verificationUseCase, nil
}

// OwnershipUseCase returns the access control use case.
func (c *Container) OwnershipUseCase() (ledgerUseCase.OwnershipUseCase, error) {
	var err error
	c.ownershipUseCaseInit.Do(func() {
		c.ownershipUseCase, err = c.initOwnershipUseCase()
		if err != nil {
			c.initErrors["ownershipUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["ownershipUseCase"]; exists {
		return nil, storedErr
	}
	return c.ownershipUseCase, nil
}

// TokenHandler returns a handler for the registry routes.
func (c *Container) TokenHandler() (*ledgerHTTP.TokenHandler, error) {
	useCase, err := c.LedgerUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger use case for token handler: %w", err)
	}
	return ledgerHTTP.NewTokenHandler(useCase, c.config.MetadataMaxBytes, c.Logger()), nil
}

// VerificationHandler returns a handler for the verification routes.
func (c *Container) VerificationHandler() (*ledgerHTTP.VerificationHandler, error) {
	useCase, err := c.VerificationUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get verification use case for verification handler: %w", err)
	}
	return ledgerHTTP.NewVerificationHandler(useCase, c.config.DocumentMaxBytes, c.Logger()), nil
}

// OwnershipHandler returns a handler for the ownership routes.
func (c *Container) OwnershipHandler() (*ledgerHTTP.OwnershipHandler, error) {
	useCase, err := c.OwnershipUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get ownership use case for ownership handler: %w", err)
	}
	return ledgerHTTP.NewOwnershipHandler(useCase, c.Logger()), nil
}

// EnsureOwner moves the ledger to the active state. LEDGER_INITIAL_OWNER is assigned when no
// owner exists yet; the call fails when the ledger would still have no owner.
func (c *Container) EnsureOwner(ctx context.Context) (*ledgerDomain.Owner, error) {
	useCase, err := c.OwnershipUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get ownership use case: %w", err)
	}

	if c.config.LedgerInitialOwner != "" {
		owner, _, err := useCase.InitializeOwner(ctx, c.config.LedgerInitialOwner)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ledger owner: %w", err)
		}
		return owner, nil
	}

	owner, err := useCase.GetOwner(ctx)
	if errors.Is(err, ledgerDomain.ErrOwnerNotInitialized) {
		return nil, fmt.Errorf("%w: set LEDGER_INITIAL_OWNER or run init-ledger", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger owner: %w", err)
	}
	return owner, nil
}

func (c *Container) initTokenRecordRepository() (ledgerUseCase.TokenRecordRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for token record repository: %w", err)
	}

	return repositoryFor(c.config.DBDriver,
		func() ledgerUseCase.TokenRecordRepository {
			return ledgerRepository.NewPostgreSQLTokenRecordRepository(db)
		},
		func() ledgerUseCase.TokenRecordRepository {
			return ledgerRepository.NewMySQLTokenRecordRepository(db)
		},
	)
}

func (c *Container) initTokenIndexRepository() (ledgerUseCase.TokenIndexRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for token index repository: %w", err)
	}

	return repositoryFor(c.config.DBDriver,
		func() ledgerUseCase.TokenIndexRepository {
			return ledgerRepository.NewPostgreSQLTokenIndexRepository(db)
		},
		func() ledgerUseCase.TokenIndexRepository {
			return ledgerRepository.NewMySQLTokenIndexRepository(db)
		},
	)
}

func (c *Container) initVerificationEventRepository() (ledgerUseCase.VerificationEventRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for verification event repository: %w", err)
	}

	return repositoryFor(c.config.DBDriver,
		func() ledgerUseCase.VerificationEventRepository {
			return ledgerRepository.NewPostgreSQLVerificationEventRepository(db)
		},
		func() ledgerUseCase.VerificationEventRepository {
			return ledgerRepository.NewMySQLVerificationEventRepository(db)
		},
	)
}

func (c *Container) initOwnerRepository() (ledgerUseCase.OwnerRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for owner repository: %w", err)
	}

	return repositoryFor(c.config.DBDriver,
		func() ledgerUseCase.OwnerRepository {
			return ledgerRepository.NewPostgreSQLOwnerRepository(db)
		},
		func() ledgerUseCase.OwnerRepository {
			return ledgerRepository.NewMySQLOwnerRepository(db)
		},
	)
}

func (c *Container) initLedgerUseCase() (ledgerUseCase.LedgerUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for ledger use case: %w", err)
	}

	recordRepo, err := c.TokenRecordRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get token record repository for ledger use case: %w", err)
	}

	indexRepo, err := c.TokenIndexRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get token index repository for ledger use case: %w", err)
	}

	ownerRepo, err := c.OwnerRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get owner repository for ledger use case: %w", err)
	}

	var outboxRepo ledgerUseCase.OutboxEventRepository
	if c.config.AnchorEnabled {
		outboxRepo, err = c.OutboxRepository()
		if err != nil {
			return nil, fmt.Errorf("failed to get outbox repository for ledger use case: %w", err)
		}
	}

	baseUseCase := ledgerUseCase.NewLedgerUseCase(
		ledgerUseCase.LedgerConfig{
			MetadataMaxBytes: c.config.MetadataMaxBytes,
			AnchorEnabled:    c.config.AnchorEnabled,
		},
		txManager,
		recordRepo,
		ledgerUseCase.NewIndexService(indexRepo),
		ownerRepo,
		outboxRepo,
		c.Clock(),
		c.Logger(),
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for ledger use case: %w", err)
		}
		return ledgerUseCase.NewLedgerUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

func (c *Container) initVerificationUseCase() (ledgerUseCase.VerificationUseCase, error) {
	recordRepo, err := c.TokenRecordRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get token record repository for verification use case: %w", err)
	}

	eventRepo, err := c.VerificationEventRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get verification event repository for verification use case: %w", err)
	}

	signingKey, err := c.SigningKey()
	if err != nil {
		return nil, fmt.Errorf("failed to get signing key for verification use case: %w", err)
	}

	baseUseCase := ledgerUseCase.NewVerificationUseCase(
		recordRepo,
		eventRepo,
		ledgerService.NewHashService(),
		ledgerService.NewVerificationSigner(signingKey),
		c.Clock(),
		c.Logger(),
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for verification use case: %w", err)
		}
		return ledgerUseCase.NewVerificationUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

func (c *Container) initOwnershipUseCase() (ledgerUseCase.OwnershipUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for ownership use case: %w", err)
	}

	ownerRepo, err := c.OwnerRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get owner repository for ownership use case: %w", err)
	}

	baseUseCase := ledgerUseCase.NewOwnershipUseCase(txManager, ownerRepo, c.Clock(), c.Logger())

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for ownership use case: %w", err)
		}
		return ledgerUseCase.NewOwnershipUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}
