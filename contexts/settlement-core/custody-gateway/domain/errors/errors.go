package errors

import "errors"

var (
	ErrInvalidAddress          = errors.New("wallet address is invalid")
	ErrInvalidToken            = errors.New("token id is invalid")
	ErrAmountMustBePositive    = errors.New("amount must be greater than zero")
	ErrInsufficientWalletFunds = errors.New("wallet balance is insufficient")
	ErrInsufficientEscrowFunds = errors.New("escrow balance is insufficient")
)
