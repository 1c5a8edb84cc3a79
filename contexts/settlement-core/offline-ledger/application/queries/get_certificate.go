package queries

import (
	"context"
	"log/slog"
	"strings"

	application "meshpay/contexts/settlement-core/offline-ledger/application"
	domainerrors "meshpay/contexts/settlement-core/offline-ledger/domain/errors"
	"meshpay/contexts/settlement-core/offline-ledger/ports"
)

type GetCertificateQuery struct {
	Hash string
}

type GetCertificateResult struct {
	Record ports.CertificateRecord
}

type GetCertificateUseCase struct {
	Ledger ports.LedgerRepository
	Logger *slog.Logger
}

func (u GetCertificateUseCase) Execute(ctx context.Context, query GetCertificateQuery) (GetCertificateResult, error) {
	logger := application.ResolveLogger(u.Logger)
	hash := strings.TrimSpace(query.Hash)
	if hash == "" {
		return GetCertificateResult{}, domainerrors.ErrCertificateNotFound
	}

	record, found, err := u.Ledger.GetCertificate(ctx, hash)
	if err != nil {
		logger.Error("get certificate failed",
			"event", "get_certificate_failed",
			"module", "settlement-core/offline-ledger",
			"layer", "application",
			"certificate_hash", hash,
			"error", err.Error(),
		)
		return GetCertificateResult{}, err
	}
	if !found {
		return GetCertificateResult{}, domainerrors.ErrCertificateNotFound
	}
	return GetCertificateResult{Record: record}, nil
}
