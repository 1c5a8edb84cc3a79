package queries

import (
	"context"
	"log/slog"
	"strings"

	application "meshpay/contexts/settlement-core/offline-ledger/application"
	"meshpay/contexts/settlement-core/offline-ledger/domain/entities"
	domainerrors "meshpay/contexts/settlement-core/offline-ledger/domain/errors"
	"meshpay/contexts/settlement-core/offline-ledger/ports"
)

type GetAccountQuery struct {
	Address string
}

type GetAccountResult struct {
	Account entities.Account
}

type GetAccountUseCase struct {
	Ledger ports.LedgerRepository
	Logger *slog.Logger
}

func (u GetAccountUseCase) Execute(ctx context.Context, query GetAccountQuery) (GetAccountResult, error) {
	logger := application.ResolveLogger(u.Logger)
	address := strings.TrimSpace(query.Address)
	if address == "" {
		return GetAccountResult{}, domainerrors.ErrInvalidAddress
	}

	account, found, err := u.Ledger.GetAccount(ctx, address)
	if err != nil {
		logger.Error("get account failed",
			"event", "get_account_failed",
			"module", "settlement-core/offline-ledger",
			"layer", "application",
			"address", address,
			"error", err.Error(),
		)
		return GetAccountResult{}, err
	}
	if !found {
		return GetAccountResult{}, domainerrors.ErrAccountNotFound
	}
	return GetAccountResult{Account: account}, nil
}
