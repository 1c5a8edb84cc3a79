package unit

import (
	"context"
	"errors"
	"math/big"
	"testing"

	custodygateway "meshpay/contexts/settlement-core/custody-gateway"
	custodyerrors "meshpay/contexts/settlement-core/custody-gateway/domain/errors"
	custodyhttp "meshpay/contexts/settlement-core/custody-gateway/transport/http"
)

func TestCustodyMintAndBalances(t *testing.T) {
	module := custodygateway.NewInMemoryModule(nil)
	ctx := context.Background()

	resp, err := module.Handler.MintHandler(ctx, "alice", custodyhttp.MintRequest{
		Token:  "tkn",
		Amount: "500",
	})
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if resp.Amount != "500" {
		t.Fatalf("unexpected mint amount: %s", resp.Amount)
	}

	balance, err := module.Handler.GetWalletBalanceHandler(ctx, "alice", "tkn")
	if err != nil {
		t.Fatalf("wallet balance failed: %v", err)
	}
	if balance.Amount != "500" {
		t.Fatalf("expected wallet 500, got %s", balance.Amount)
	}
}

func TestCustodyEscrowRoundTrip(t *testing.T) {
	module := custodygateway.NewInMemoryModule(nil)
	ctx := context.Background()

	if err := module.Service.Mint(ctx, "alice", "tkn", big.NewInt(200)); err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if err := module.Service.EscrowTransferIn(ctx, "alice", "tkn", big.NewInt(150)); err != nil {
		t.Fatalf("escrow in failed: %v", err)
	}

	escrow, err := module.Handler.GetEscrowBalanceHandler(ctx, "tkn")
	if err != nil {
		t.Fatalf("escrow balance failed: %v", err)
	}
	if escrow.Amount != "150" {
		t.Fatalf("expected escrow 150, got %s", escrow.Amount)
	}

	if err := module.Service.EscrowTransferOut(ctx, "tkn", big.NewInt(100), "bob"); err != nil {
		t.Fatalf("escrow out failed: %v", err)
	}
	wallet, err := module.Service.WalletBalance(ctx, "bob", "tkn")
	if err != nil {
		t.Fatalf("wallet balance failed: %v", err)
	}
	if wallet.String() != "100" {
		t.Fatalf("expected bob wallet 100, got %s", wallet.String())
	}
}

func TestCustodyRejectsOverdraft(t *testing.T) {
	module := custodygateway.NewInMemoryModule(nil)
	ctx := context.Background()

	if err := module.Service.Mint(ctx, "alice", "tkn", big.NewInt(50)); err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if err := module.Service.EscrowTransferIn(ctx, "alice", "tkn", big.NewInt(80)); !errors.Is(err, custodyerrors.ErrInsufficientWalletFunds) {
		t.Fatalf("expected insufficient wallet funds, got %v", err)
	}
	if err := module.Service.EscrowTransferOut(ctx, "tkn", big.NewInt(10), "bob"); !errors.Is(err, custodyerrors.ErrInsufficientEscrowFunds) {
		t.Fatalf("expected insufficient escrow funds, got %v", err)
	}
	if err := module.Service.Mint(ctx, "alice", "tkn", big.NewInt(0)); !errors.Is(err, custodyerrors.ErrAmountMustBePositive) {
		t.Fatalf("expected positive amount rejection, got %v", err)
	}
}
