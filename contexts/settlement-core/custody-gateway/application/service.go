package application

import (
	"context"
	"log/slog"
	"math/big"
	"strings"

	domainerrors "meshpay/contexts/settlement-core/custody-gateway/domain/errors"
	"meshpay/contexts/settlement-core/custody-gateway/ports"
)

type Service struct {
	Repo   ports.CustodyRepository
	Logger *slog.Logger
}

// Mint credits a wallet out of thin air. It exists for onboarding and test
// environments; production deployments seed wallets through settlement rails.
func (s Service) Mint(ctx context.Context, holder string, token string, amount *big.Int) error {
	holder = strings.TrimSpace(holder)
	token = strings.TrimSpace(token)
	if holder == "" {
		return domainerrors.ErrInvalidAddress
	}
	if token == "" {
		return domainerrors.ErrInvalidToken
	}
	if amount == nil || amount.Sign() <= 0 {
		return domainerrors.ErrAmountMustBePositive
	}

	if err := s.Repo.Mint(ctx, holder, token, amount); err != nil {
		return err
	}
	resolveLogger(s.Logger).Info("wallet minted",
		"event", "custody_wallet_minted",
		"module", "settlement-core/custody-gateway",
		"layer", "application",
		"holder", holder,
		"token", token,
		"amount", amount.String(),
	)
	return nil
}

// EscrowTransferIn moves value from the holder's wallet into ledger escrow.
func (s Service) EscrowTransferIn(ctx context.Context, holder string, token string, amount *big.Int) error {
	holder = strings.TrimSpace(holder)
	token = strings.TrimSpace(token)
	if holder == "" {
		return domainerrors.ErrInvalidAddress
	}
	if token == "" {
		return domainerrors.ErrInvalidToken
	}
	if amount == nil || amount.Sign() <= 0 {
		return domainerrors.ErrAmountMustBePositive
	}

	if err := s.Repo.MoveToEscrow(ctx, holder, token, amount); err != nil {
		return err
	}
	resolveLogger(s.Logger).Info("escrow transfer in",
		"event", "custody_escrow_in",
		"module", "settlement-core/custody-gateway",
		"layer", "application",
		"holder", holder,
		"token", token,
		"amount", amount.String(),
	)
	return nil
}

// EscrowTransferOut moves value from ledger escrow into the destination wallet.
func (s Service) EscrowTransferOut(ctx context.Context, token string, amount *big.Int, destination string) error {
	token = strings.TrimSpace(token)
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return domainerrors.ErrInvalidAddress
	}
	if token == "" {
		return domainerrors.ErrInvalidToken
	}
	if amount == nil || amount.Sign() <= 0 {
		return domainerrors.ErrAmountMustBePositive
	}

	if err := s.Repo.MoveFromEscrow(ctx, token, amount, destination); err != nil {
		return err
	}
	resolveLogger(s.Logger).Info("escrow transfer out",
		"event", "custody_escrow_out",
		"module", "settlement-core/custody-gateway",
		"layer", "application",
		"destination", destination,
		"token", token,
		"amount", amount.String(),
	)
	return nil
}

func (s Service) WalletBalance(ctx context.Context, holder string, token string) (*big.Int, error) {
	holder = strings.TrimSpace(holder)
	token = strings.TrimSpace(token)
	if holder == "" {
		return nil, domainerrors.ErrInvalidAddress
	}
	if token == "" {
		return nil, domainerrors.ErrInvalidToken
	}
	return s.Repo.WalletBalance(ctx, holder, token)
}

func (s Service) EscrowBalance(ctx context.Context, token string) (*big.Int, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domainerrors.ErrInvalidToken
	}
	return s.Repo.EscrowBalance(ctx, token)
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
