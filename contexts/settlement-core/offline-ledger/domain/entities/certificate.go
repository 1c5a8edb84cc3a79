package entities

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	domainerrors "meshpay/contexts/settlement-core/offline-ledger/domain/errors"
)

// TransferCertificate is the unit of offline authorization: a sender-signed
// statement of intent that owns no funds until redeemed. It is pure data and
// content-addressable through Hash.
type TransferCertificate struct {
	Sender         string
	Recipient      string
	Token          string
	Amount         *big.Int
	SequenceNumber uint64
	IssuedAt       time.Time
}

func NewTransferCertificate(
	sender string,
	recipient string,
	token string,
	amount *big.Int,
	sequenceNumber uint64,
	issuedAt time.Time,
) (TransferCertificate, error) {
	certificate := TransferCertificate{
		Sender:         strings.TrimSpace(sender),
		Recipient:      strings.TrimSpace(recipient),
		Token:          strings.TrimSpace(token),
		Amount:         amount,
		SequenceNumber: sequenceNumber,
		IssuedAt:       issuedAt.UTC(),
	}
	if err := certificate.Validate(); err != nil {
		return TransferCertificate{}, err
	}
	certificate.Amount = new(big.Int).Set(amount)
	return certificate, nil
}

// Validate covers the structural certificate invariants: positive amount,
// non-zero sequence number, distinct non-empty sender and recipient.
func (c TransferCertificate) Validate() error {
	if strings.TrimSpace(c.Sender) == "" || strings.TrimSpace(c.Recipient) == "" ||
		strings.TrimSpace(c.Token) == "" {
		return domainerrors.ErrInvalidTransferCertificate
	}
	if c.Sender == c.Recipient {
		return domainerrors.ErrInvalidTransferCertificate
	}
	if c.Amount == nil || c.Amount.Sign() <= 0 {
		return domainerrors.ErrInvalidTransferCertificate
	}
	if c.SequenceNumber == 0 {
		return domainerrors.ErrInvalidTransferCertificate
	}
	return nil
}

// Hash is the deterministic content address of the certificate, computed over
// every authorization-relevant field. Two byte-identical certificates always
// collide here, which is what redemption replay detection relies on.
func (c TransferCertificate) Hash() string {
	amount := "0"
	if c.Amount != nil {
		amount = c.Amount.String()
	}
	preimage := fmt.Sprintf("%s|%s|%s|%s|%d|%d",
		c.Sender,
		c.Recipient,
		c.Token,
		amount,
		c.SequenceNumber,
		c.IssuedAt.UTC().Unix(),
	)
	sum := blake2b.Sum256([]byte(preimage))
	return hex.EncodeToString(sum[:])
}

// ExpiresAt is the data-level redemption deadline.
func (c TransferCertificate) ExpiresAt(window time.Duration) time.Time {
	return c.IssuedAt.UTC().Add(window)
}

// RedeemTransaction wraps a certificate with its authorization proof. The
// signature is an opaque blob here: verification is pluggable and runs before
// the ledger transition, never inside it.
type RedeemTransaction struct {
	Certificate TransferCertificate
	Signature   []byte
}
