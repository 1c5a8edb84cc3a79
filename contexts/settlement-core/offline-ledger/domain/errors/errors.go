package errors

import "errors"

var (
	ErrAccountNotRegistered       = errors.New("account is not registered")
	ErrAccountAlreadyRegistered   = errors.New("account is already registered")
	ErrAccountNotFound            = errors.New("account not found")
	ErrAmountMustBePositive       = errors.New("amount must be greater than zero")
	ErrInvalidSequenceNumber      = errors.New("sequence number is not greater than the sender's redeemed cursor")
	ErrInvalidTransferCertificate = errors.New("transfer certificate is malformed")
	ErrInsufficientBalance        = errors.New("sender balance is insufficient")
	ErrCertificateAlreadyRedeemed = errors.New("transfer certificate was already redeemed")
	ErrCertificateExpired         = errors.New("transfer certificate expired")
	ErrCertificateNotFound        = errors.New("transfer certificate not found")
	ErrCustodyTransferFailed      = errors.New("custody transfer failed")
	ErrInvalidAddress             = errors.New("address is invalid")
	ErrInvalidToken               = errors.New("token id is invalid")
	ErrCertificateAlreadyIssued   = errors.New("transfer certificate already issued")
	ErrIdempotencyKeyConflict     = errors.New("idempotency key already used with different payload")
	ErrRepositoryInvariantBroke   = errors.New("ledger repository invariant broken")
)
