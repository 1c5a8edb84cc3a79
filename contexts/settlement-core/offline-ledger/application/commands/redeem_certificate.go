package commands

import (
	"context"
	"log/slog"
	"time"

	application "meshpay/contexts/settlement-core/offline-ledger/application"
	"meshpay/contexts/settlement-core/offline-ledger/domain/entities"
	domainerrors "meshpay/contexts/settlement-core/offline-ledger/domain/errors"
	"meshpay/contexts/settlement-core/offline-ledger/domain/services"
	"meshpay/contexts/settlement-core/offline-ledger/ports"
)

const (
	certificateRedeemedEventType = "ledger.certificate_redeemed"

	DestinationInternal = "internal"
	DestinationExternal = "external"
)

type RedeemCertificateCommand struct {
	Tx entities.RedeemTransaction
}

type RedeemCertificateResult struct {
	Hash        string
	Destination string
	RedeemedAt  time.Time
}

// RedeemCertificateUseCase is the core state transition: validate ordering,
// expiry, and uniqueness, then debit the sender, settle the recipient, and
// advance the sender's sequence cursor in one atomic step. Any rejection leaves
// ledger state untouched.
//
// A certificate does not need to have been issued through this ledger: the
// incoming fields are hashed and judged on their own, which is what makes
// offline-prepared certificates redeemable.
type RedeemCertificateUseCase struct {
	Ledger       ports.LedgerRepository
	Custody      ports.CustodyGateway
	Verifier     ports.CertificateVerifier
	Clock        ports.Clock
	IDGenerator  ports.IDGenerator
	ExpiryWindow time.Duration
	Logger       *slog.Logger
}

func (u RedeemCertificateUseCase) Execute(ctx context.Context, cmd RedeemCertificateCommand) (RedeemCertificateResult, error) {
	logger := application.ResolveLogger(u.Logger)
	certificate := cmd.Tx.Certificate

	if u.Verifier != nil {
		if err := u.Verifier.VerifyAuthorization(ctx, cmd.Tx); err != nil {
			return RedeemCertificateResult{}, err
		}
	}

	now := u.now()
	hash := certificate.Hash()

	record, recordFound, err := u.Ledger.GetCertificate(ctx, hash)
	if err != nil {
		return RedeemCertificateResult{}, err
	}
	sender, senderFound, err := u.Ledger.GetAccount(ctx, certificate.Sender)
	if err != nil {
		return RedeemCertificateResult{}, err
	}

	// A never-registered sender resolves to a zero-value account: cursor 0,
	// balance 0. Any positive-amount certificate then fails the balance check.
	state := services.RedemptionState{
		AlreadyRedeemed: recordFound && record.Redeemed,
	}
	if senderFound {
		state.RedeemedCursor = sender.LastRedeemedSequence
		state.SenderBalance = sender.BalanceOf(certificate.Token)
	}
	if err := services.EvaluateRedemption(certificate, state, now, u.expiryWindow()); err != nil {
		logger.Warn("redemption rejected",
			"event", "redeem_certificate_rejected",
			"module", "settlement-core/offline-ledger",
			"layer", "application",
			"sender", certificate.Sender,
			"sequence_number", certificate.SequenceNumber,
			"certificate_hash", hash,
			"error", err.Error(),
		)
		return RedeemCertificateResult{}, err
	}

	recipient, recipientFound, err := u.Ledger.GetAccount(ctx, certificate.Recipient)
	if err != nil {
		return RedeemCertificateResult{}, err
	}
	creditInternal := recipientFound && recipient.Registered
	destination := DestinationInternal
	if !creditInternal {
		destination = DestinationExternal
	}

	// Unregistered recipients bypass the internal ledger: the amount leaves
	// escrow for their external wallet directly.
	if !creditInternal {
		if err := u.Custody.EscrowTransferOut(ctx, certificate.Token, certificate.Amount, certificate.Recipient); err != nil {
			logger.Warn("custody escrow-out rejected",
				"event", "redeem_certificate_custody_failed",
				"module", "settlement-core/offline-ledger",
				"layer", "application",
				"recipient", certificate.Recipient,
				"token", certificate.Token,
				"error", err.Error(),
			)
			return RedeemCertificateResult{}, domainerrors.ErrCustodyTransferFailed
		}
	}

	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		u.compensateEscrowOut(ctx, certificate, creditInternal, logger)
		return RedeemCertificateResult{}, err
	}

	err = u.Ledger.ApplyRedemption(ctx, ports.RedemptionApply{
		Certificate:     certificate,
		Hash:            hash,
		CreditRecipient: creditInternal,
		RedeemedAt:      now,
	}, ports.CertificateRedeemedEvent{
		EventID:     eventID,
		EventType:   certificateRedeemedEventType,
		Hash:        hash,
		Certificate: certificate,
		Destination: destination,
		OccurredAt:  now,
	})
	if err != nil {
		u.compensateEscrowOut(ctx, certificate, creditInternal, logger)
		return RedeemCertificateResult{}, err
	}

	logger.Info("certificate redeemed",
		"event", "certificate_redeemed",
		"module", "settlement-core/offline-ledger",
		"layer", "application",
		"sender", certificate.Sender,
		"recipient", certificate.Recipient,
		"token", certificate.Token,
		"amount", certificate.Amount.String(),
		"sequence_number", certificate.SequenceNumber,
		"certificate_hash", hash,
		"destination", destination,
	)
	return RedeemCertificateResult{
		Hash:        hash,
		Destination: destination,
		RedeemedAt:  now,
	}, nil
}

// compensateEscrowOut pulls an external payout back into escrow when the
// ledger write behind it never committed.
func (u RedeemCertificateUseCase) compensateEscrowOut(
	ctx context.Context,
	certificate entities.TransferCertificate,
	creditInternal bool,
	logger *slog.Logger,
) {
	if creditInternal {
		return
	}
	if err := u.Custody.EscrowTransferIn(ctx, certificate.Recipient, certificate.Token, certificate.Amount); err != nil {
		logger.Error("custody compensation failed",
			"event", "redeem_certificate_compensation_failed",
			"module", "settlement-core/offline-ledger",
			"layer", "application",
			"recipient", certificate.Recipient,
			"token", certificate.Token,
			"amount", certificate.Amount.String(),
			"error", err.Error(),
		)
	}
}

func (u RedeemCertificateUseCase) expiryWindow() time.Duration {
	if u.ExpiryWindow <= 0 {
		return 24 * time.Hour
	}
	return u.ExpiryWindow
}

func (u RedeemCertificateUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
