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

type ListFundingRecordsQuery struct {
	Sender string
	Limit  int
}

type ListFundingRecordsResult struct {
	Records []entities.FundingRecord
}

type ListFundingRecordsUseCase struct {
	Ledger ports.LedgerRepository
	Logger *slog.Logger
}

func (u ListFundingRecordsUseCase) Execute(ctx context.Context, query ListFundingRecordsQuery) (ListFundingRecordsResult, error) {
	logger := application.ResolveLogger(u.Logger)
	sender := strings.TrimSpace(query.Sender)
	if sender == "" {
		return ListFundingRecordsResult{}, domainerrors.ErrInvalidAddress
	}
	limit := query.Limit
	if limit <= 0 {
		limit = 50
	}

	records, err := u.Ledger.ListFundingRecords(ctx, sender, limit)
	if err != nil {
		logger.Error("list funding records failed",
			"event", "list_funding_records_failed",
			"module", "settlement-core/offline-ledger",
			"layer", "application",
			"sender", sender,
			"error", err.Error(),
		)
		return ListFundingRecordsResult{}, err
	}
	return ListFundingRecordsResult{Records: records}, nil
}
