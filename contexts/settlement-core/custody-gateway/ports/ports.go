package ports

import (
	"context"
	"math/big"
)

// CustodyRepository owns wallet and escrow balances. Move methods debit one
// side and credit the other in a single atomic step.
type CustodyRepository interface {
	Mint(ctx context.Context, holder string, token string, amount *big.Int) error
	MoveToEscrow(ctx context.Context, holder string, token string, amount *big.Int) error
	MoveFromEscrow(ctx context.Context, token string, amount *big.Int, destination string) error

	WalletBalance(ctx context.Context, holder string, token string) (*big.Int, error)
	EscrowBalance(ctx context.Context, token string) (*big.Int, error)
}
