package httpadapter

import (
	"context"
	"log/slog"
	"math/big"
	"strings"

	"meshpay/contexts/settlement-core/custody-gateway/application"
	domainerrors "meshpay/contexts/settlement-core/custody-gateway/domain/errors"
	httptransport "meshpay/contexts/settlement-core/custody-gateway/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

// MintHandler godoc
// @Summary Mint wallet funds
// @Description Credits an external wallet. Intended for onboarding and test environments.
// @Tags custody-gateway
// @Accept json
// @Produce json
// @Param X-Request-Id header string true "Request correlation id"
// @Param address path string true "Wallet holder address"
// @Param request body httptransport.MintRequest true "Mint payload"
// @Success 200 {object} httptransport.MintResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 422 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /custody/wallets/{address}/mint [post]
func (h Handler) MintHandler(
	ctx context.Context,
	address string,
	req httptransport.MintRequest,
) (httptransport.MintResponse, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return httptransport.MintResponse{}, err
	}
	if err := h.Service.Mint(ctx, address, req.Token, amount); err != nil {
		return httptransport.MintResponse{}, err
	}
	return httptransport.MintResponse{
		Holder: strings.TrimSpace(address),
		Token:  strings.TrimSpace(req.Token),
		Amount: amount.String(),
	}, nil
}

// GetWalletBalanceHandler godoc
// @Summary Get wallet balance
// @Description Returns the external wallet balance for a holder and token.
// @Tags custody-gateway
// @Accept json
// @Produce json
// @Param X-Request-Id header string true "Request correlation id"
// @Param address path string true "Wallet holder address"
// @Param token path string true "Token id"
// @Success 200 {object} httptransport.WalletBalanceResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /custody/wallets/{address}/balances/{token} [get]
func (h Handler) GetWalletBalanceHandler(
	ctx context.Context,
	address string,
	token string,
) (httptransport.WalletBalanceResponse, error) {
	balance, err := h.Service.WalletBalance(ctx, address, token)
	if err != nil {
		return httptransport.WalletBalanceResponse{}, err
	}
	return httptransport.WalletBalanceResponse{
		Holder: strings.TrimSpace(address),
		Token:  strings.TrimSpace(token),
		Amount: balance.String(),
	}, nil
}

// GetEscrowBalanceHandler godoc
// @Summary Get escrow balance
// @Description Returns the total ledger escrow held for a token.
// @Tags custody-gateway
// @Accept json
// @Produce json
// @Param X-Request-Id header string true "Request correlation id"
// @Param token path string true "Token id"
// @Success 200 {object} httptransport.EscrowBalanceResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /custody/escrow/{token} [get]
func (h Handler) GetEscrowBalanceHandler(
	ctx context.Context,
	token string,
) (httptransport.EscrowBalanceResponse, error) {
	balance, err := h.Service.EscrowBalance(ctx, token)
	if err != nil {
		return httptransport.EscrowBalanceResponse{}, err
	}
	return httptransport.EscrowBalanceResponse{
		Token:  strings.TrimSpace(token),
		Amount: balance.String(),
	}, nil
}

func parseAmount(raw string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok {
		return nil, domainerrors.ErrAmountMustBePositive
	}
	return amount, nil
}
