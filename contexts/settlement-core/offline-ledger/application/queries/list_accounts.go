package queries

import (
	"context"
	"log/slog"

	application "meshpay/contexts/settlement-core/offline-ledger/application"
	"meshpay/contexts/settlement-core/offline-ledger/domain/entities"
	"meshpay/contexts/settlement-core/offline-ledger/ports"
)

type ListAccountsResult struct {
	Accounts []entities.Account
}

type ListAccountsUseCase struct {
	Ledger ports.LedgerRepository
	Logger *slog.Logger
}

func (u ListAccountsUseCase) Execute(ctx context.Context) (ListAccountsResult, error) {
	logger := application.ResolveLogger(u.Logger)
	accounts, err := u.Ledger.ListAccounts(ctx)
	if err != nil {
		logger.Error("list accounts failed",
			"event", "list_accounts_failed",
			"module", "settlement-core/offline-ledger",
			"layer", "application",
			"error", err.Error(),
		)
		return ListAccountsResult{}, err
	}
	return ListAccountsResult{Accounts: accounts}, nil
}
