package signatureadapter

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"strings"

	"meshpay/contexts/settlement-core/offline-ledger/domain/entities"
	domainerrors "meshpay/contexts/settlement-core/offline-ledger/domain/errors"
	"meshpay/contexts/settlement-core/offline-ledger/ports"
)

// Ed25519Verifier checks that a redeem transaction was signed by the sender.
// Sender addresses are hex-encoded ed25519 public keys; the signed message is
// the certificate's content hash.
type Ed25519Verifier struct{}

func (Ed25519Verifier) VerifyAuthorization(_ context.Context, tx entities.RedeemTransaction) error {
	key, err := hex.DecodeString(strings.TrimSpace(tx.Certificate.Sender))
	if err != nil || len(key) != ed25519.PublicKeySize {
		return domainerrors.ErrInvalidAddress
	}
	if len(tx.Signature) != ed25519.SignatureSize {
		return domainerrors.ErrInvalidTransferCertificate
	}
	if !ed25519.Verify(ed25519.PublicKey(key), []byte(tx.Certificate.Hash()), tx.Signature) {
		return domainerrors.ErrInvalidTransferCertificate
	}
	return nil
}

var _ ports.CertificateVerifier = Ed25519Verifier{}
