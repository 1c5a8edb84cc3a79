package services

import (
	"math/big"
	"time"

	"meshpay/contexts/settlement-core/offline-ledger/domain/entities"
	domainerrors "meshpay/contexts/settlement-core/offline-ledger/domain/errors"
)

// RedemptionState is the slice of ledger state a redemption decision reads.
type RedemptionState struct {
	AlreadyRedeemed bool
	RedeemedCursor  uint64
	SenderBalance   *big.Int
}

// EvaluateRedemption runs the admission checks for a certificate in their
// canonical order. The order is observable through error kinds and must not
// change: a replayed certificate reports ErrCertificateAlreadyRedeemed even
// though its sequence number is also stale.
func EvaluateRedemption(
	certificate entities.TransferCertificate,
	state RedemptionState,
	now time.Time,
	expiryWindow time.Duration,
) error {
	if err := certificate.Validate(); err != nil {
		return err
	}
	if now.UTC().After(certificate.ExpiresAt(expiryWindow)) {
		return domainerrors.ErrCertificateExpired
	}
	if state.AlreadyRedeemed {
		return domainerrors.ErrCertificateAlreadyRedeemed
	}
	// High-water mark, not a used set: once a sequence number is redeemed,
	// every lower or equal number from the same sender is forfeit.
	if certificate.SequenceNumber <= state.RedeemedCursor {
		return domainerrors.ErrInvalidSequenceNumber
	}
	balance := state.SenderBalance
	if balance == nil {
		balance = new(big.Int)
	}
	if balance.Cmp(certificate.Amount) < 0 {
		return domainerrors.ErrInsufficientBalance
	}
	return nil
}
