package services

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"meshpay/contexts/settlement-core/offline-ledger/domain/entities"
	domainerrors "meshpay/contexts/settlement-core/offline-ledger/domain/errors"
)

const window = 24 * time.Hour

func validCertificate(t *testing.T, sequence uint64, issuedAt time.Time) entities.TransferCertificate {
	t.Helper()
	certificate, err := entities.NewTransferCertificate("alice", "bob", "tkn", big.NewInt(10), sequence, issuedAt)
	if err != nil {
		t.Fatalf("build certificate: %v", err)
	}
	return certificate
}

func TestEvaluateRedemptionAccepts(t *testing.T) {
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	certificate := validCertificate(t, 3, issuedAt)

	err := EvaluateRedemption(certificate, RedemptionState{
		RedeemedCursor: 2,
		SenderBalance:  big.NewInt(10),
	}, issuedAt.Add(window), window)
	if err != nil {
		t.Fatalf("expected acceptance at expiry boundary, got %v", err)
	}
}

func TestEvaluateRedemptionRejectionOrder(t *testing.T) {
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	certificate := validCertificate(t, 3, issuedAt)

	cases := []struct {
		name  string
		state RedemptionState
		now   time.Time
		want  error
	}{
		{
			name:  "expired wins over replay",
			state: RedemptionState{AlreadyRedeemed: true},
			now:   issuedAt.Add(window + time.Second),
			want:  domainerrors.ErrCertificateExpired,
		},
		{
			name:  "replay wins over stale sequence",
			state: RedemptionState{AlreadyRedeemed: true, RedeemedCursor: 5},
			now:   issuedAt,
			want:  domainerrors.ErrCertificateAlreadyRedeemed,
		},
		{
			name:  "stale sequence wins over balance",
			state: RedemptionState{RedeemedCursor: 3},
			now:   issuedAt,
			want:  domainerrors.ErrInvalidSequenceNumber,
		},
		{
			name:  "equal sequence is stale",
			state: RedemptionState{RedeemedCursor: 3, SenderBalance: big.NewInt(100)},
			now:   issuedAt,
			want:  domainerrors.ErrInvalidSequenceNumber,
		},
		{
			name:  "insufficient balance",
			state: RedemptionState{RedeemedCursor: 0, SenderBalance: big.NewInt(9)},
			now:   issuedAt,
			want:  domainerrors.ErrInsufficientBalance,
		},
		{
			name:  "nil balance treated as zero",
			state: RedemptionState{},
			now:   issuedAt,
			want:  domainerrors.ErrInsufficientBalance,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := EvaluateRedemption(certificate, tc.state, tc.now, window); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestEvaluateRedemptionRejectsMalformedCertificate(t *testing.T) {
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	certificate := validCertificate(t, 1, issuedAt)
	certificate.Recipient = certificate.Sender

	err := EvaluateRedemption(certificate, RedemptionState{SenderBalance: big.NewInt(100)}, issuedAt, window)
	if !errors.Is(err, domainerrors.ErrInvalidTransferCertificate) {
		t.Fatalf("expected malformed rejection, got %v", err)
	}
}

func TestCertificateHashIsContentAddressed(t *testing.T) {
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	one := validCertificate(t, 1, issuedAt)
	same := validCertificate(t, 1, issuedAt)
	other := validCertificate(t, 2, issuedAt)

	if one.Hash() != same.Hash() {
		t.Fatalf("identical certificates must share a hash")
	}
	if one.Hash() == other.Hash() {
		t.Fatalf("distinct certificates must not share a hash")
	}
}
