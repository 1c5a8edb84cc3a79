package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	custodygateway "meshpay/contexts/settlement-core/custody-gateway"
	offlineledger "meshpay/contexts/settlement-core/offline-ledger"
	"meshpay/contexts/settlement-core/offline-ledger/adapters/memory"
	postgresadapter "meshpay/contexts/settlement-core/offline-ledger/adapters/postgres"
	signatureadapter "meshpay/contexts/settlement-core/offline-ledger/adapters/signature"
	ledgerworkers "meshpay/contexts/settlement-core/offline-ledger/application/workers"
	"meshpay/contexts/settlement-core/offline-ledger/ports"
	"meshpay/internal/platform/config"
	"meshpay/internal/platform/db"
	"meshpay/internal/platform/httpserver"
	"meshpay/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	outboxRelay  ledgerworkers.OutboxRelay
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	custody := custodygateway.NewInMemoryModule(logger)

	var verifier ports.CertificateVerifier
	if cfg.EnableSignatureVerification {
		verifier = signatureadapter.Ed25519Verifier{}
	}

	deps := offlineledger.Dependencies{
		Custody:        custody.Service,
		Verifier:       verifier,
		ExpiryWindow:   cfg.CertificateExpiryWindow,
		IdempotencyTTL: cfg.IdempotencyTTL,
		Logger:         logger,
	}

	var pg *db.Postgres
	if strings.TrimSpace(cfg.PostgresDSN) != "" {
		pg, err = db.Connect(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		repo := postgresadapter.NewRepository(pg.DB, logger)
		deps.Ledger = repo
		deps.Idempotency = repo
		deps.Clock = postgresadapter.SystemClock{}
		deps.IDGenerator = postgresadapter.UUIDGenerator{}
	} else {
		store := memory.NewStore()
		deps.Ledger = store
		deps.Idempotency = store
		deps.Clock = store
		deps.IDGenerator = store
	}

	ledger := offlineledger.NewModule(deps)
	server := httpserver.New(ledger, custody, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	return &WorkerApp{
		postgres: pg,
		outboxRelay: ledgerworkers.OutboxRelay{
			Outbox:    repo,
			Publisher: kafka,
			Clock:     postgresadapter.SystemClock{},
			Topic:     "ledger.events",
			BatchSize: 100,
			Logger:    logger,
		},
		pollInterval: cfg.OutboxPollInterval,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if err := w.outboxRelay.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
