package commands

import (
	"context"
	"log/slog"
	"math/big"
	"strings"
	"time"

	application "meshpay/contexts/settlement-core/offline-ledger/application"
	"meshpay/contexts/settlement-core/offline-ledger/domain/entities"
	domainerrors "meshpay/contexts/settlement-core/offline-ledger/domain/errors"
	"meshpay/contexts/settlement-core/offline-ledger/ports"
)

const certificateIssuedEventType = "ledger.certificate_issued"

type IssueCertificateCommand struct {
	Sender         string
	Recipient      string
	Token          string
	Amount         *big.Int
	SequenceNumber uint64
}

type IssueCertificateResult struct {
	Record ports.CertificateRecord
}

// IssueCertificateUseCase stamps a transfer request into a content-addressed
// certificate. The balance check is a liveness check only: nothing is locked
// or debited, so a sender may hold several live certificates whose amounts
// jointly exceed their balance. Redemption is the sole debit-time enforcer.
type IssueCertificateUseCase struct {
	Ledger      ports.LedgerRepository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (u IssueCertificateUseCase) Execute(ctx context.Context, cmd IssueCertificateCommand) (IssueCertificateResult, error) {
	logger := application.ResolveLogger(u.Logger)
	sender := strings.TrimSpace(cmd.Sender)
	if sender == "" {
		return IssueCertificateResult{}, domainerrors.ErrInvalidAddress
	}

	account, found, err := u.Ledger.GetAccount(ctx, sender)
	if err != nil {
		return IssueCertificateResult{}, err
	}
	if !found || !account.Registered {
		return IssueCertificateResult{}, domainerrors.ErrAccountNotRegistered
	}
	if cmd.SequenceNumber == 0 {
		return IssueCertificateResult{}, domainerrors.ErrInvalidSequenceNumber
	}

	now := u.now()
	certificate, err := entities.NewTransferCertificate(
		sender,
		cmd.Recipient,
		cmd.Token,
		cmd.Amount,
		cmd.SequenceNumber,
		now,
	)
	if err != nil {
		return IssueCertificateResult{}, err
	}
	if account.BalanceOf(certificate.Token).Cmp(certificate.Amount) < 0 {
		return IssueCertificateResult{}, domainerrors.ErrInsufficientBalance
	}

	record := ports.CertificateRecord{
		Certificate: certificate,
		Hash:        certificate.Hash(),
	}

	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return IssueCertificateResult{}, err
	}
	event := ports.CertificateIssuedEvent{
		EventID:     eventID,
		EventType:   certificateIssuedEventType,
		Hash:        record.Hash,
		Certificate: certificate,
		OccurredAt:  now,
	}

	if err := u.Ledger.CreateCertificate(ctx, record, event); err != nil {
		return IssueCertificateResult{}, err
	}

	logger.Info("certificate issued",
		"event", "certificate_issued",
		"module", "settlement-core/offline-ledger",
		"layer", "application",
		"sender", certificate.Sender,
		"recipient", certificate.Recipient,
		"sequence_number", certificate.SequenceNumber,
		"certificate_hash", record.Hash,
	)
	return IssueCertificateResult{Record: record}, nil
}

func (u IssueCertificateUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
