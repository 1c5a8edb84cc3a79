package offlineledger

import (
	"log/slog"
	"time"

	httpadapter "meshpay/contexts/settlement-core/offline-ledger/adapters/http"
	"meshpay/contexts/settlement-core/offline-ledger/adapters/memory"
	"meshpay/contexts/settlement-core/offline-ledger/application/commands"
	"meshpay/contexts/settlement-core/offline-ledger/application/queries"
	"meshpay/contexts/settlement-core/offline-ledger/ports"
)

// Module is the composition surface for the settlement ledger.
// Runtime wiring should consume Handler; Store is exposed for tests/inspection.
type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Ledger         ports.LedgerRepository
	Idempotency    ports.IdempotencyStore
	Custody        ports.CustodyGateway
	Verifier       ports.CertificateVerifier
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	ExpiryWindow   time.Duration
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

// NewModule wires the ledger use-cases against explicit ports.
func NewModule(deps Dependencies) Module {
	registerAccount := commands.RegisterAccountUseCase{
		Ledger:      deps.Ledger,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	fundAccount := commands.FundAccountUseCase{
		Ledger:         deps.Ledger,
		Custody:        deps.Custody,
		Idempotency:    deps.Idempotency,
		Clock:          deps.Clock,
		IDGenerator:    deps.IDGenerator,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	issueCertificate := commands.IssueCertificateUseCase{
		Ledger:      deps.Ledger,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	redeemCertificate := commands.RedeemCertificateUseCase{
		Ledger:       deps.Ledger,
		Custody:      deps.Custody,
		Verifier:     deps.Verifier,
		Clock:        deps.Clock,
		IDGenerator:  deps.IDGenerator,
		ExpiryWindow: deps.ExpiryWindow,
		Logger:       deps.Logger,
	}
	getAccount := queries.GetAccountUseCase{
		Ledger: deps.Ledger,
		Logger: deps.Logger,
	}
	listAccounts := queries.ListAccountsUseCase{
		Ledger: deps.Ledger,
		Logger: deps.Logger,
	}
	getCertificate := queries.GetCertificateUseCase{
		Ledger: deps.Ledger,
		Logger: deps.Logger,
	}
	listFundingRecords := queries.ListFundingRecordsUseCase{
		Ledger: deps.Ledger,
		Logger: deps.Logger,
	}

	handler := httpadapter.Handler{
		RegisterAccount:    registerAccount,
		FundAccount:        fundAccount,
		IssueCertificate:   issueCertificate,
		RedeemCertificate:  redeemCertificate,
		GetAccount:         getAccount,
		ListAccounts:       listAccounts,
		GetCertificate:     getCertificate,
		ListFundingRecords: listFundingRecords,
		Logger:             deps.Logger,
	}

	return Module{Handler: handler}
}

// NewInMemoryModule wires the ledger use cases against the in-memory store.
// This is the developer/runtime bootstrap path when no Postgres DSN is set.
func NewInMemoryModule(custody ports.CustodyGateway, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Ledger:         store,
		Idempotency:    store,
		Custody:        custody,
		Clock:          store,
		IDGenerator:    store,
		ExpiryWindow:   24 * time.Hour,
		IdempotencyTTL: 7 * 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	return module
}
