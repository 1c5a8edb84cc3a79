package ports

import (
	"context"
	"math/big"
	"time"

	"meshpay/contexts/settlement-core/offline-ledger/domain/entities"
	contractsv1 "meshpay/contracts/gen/events/v1"
)

type EventEnvelope = contractsv1.Envelope

// CertificateRecord is an issued certificate plus its redemption status.
// Redeemed certificates stay queryable but can never change ledger state again.
type CertificateRecord struct {
	Certificate entities.TransferCertificate
	Hash        string
	Redeemed    bool
	RedeemedAt  *time.Time
}

// RedemptionApply is the committed outcome of a validated redemption.
// CreditRecipient is true for registered recipients (internal ledger credit);
// unregistered recipients are paid out of escrow by the custody gateway.
type RedemptionApply struct {
	Certificate     entities.TransferCertificate
	Hash            string
	CreditRecipient bool
	RedeemedAt      time.Time
}

// AccountRegisteredEvent announces a new ledger account.
type AccountRegisteredEvent struct {
	EventID    string
	EventType  string
	Address    string
	OccurredAt time.Time
}

// TokensDepositedEvent announces a funding credit. TransactionIndex is filled
// in by the repository when the funding row is assigned its global index.
type TokensDepositedEvent struct {
	EventID          string
	EventType        string
	Sender           string
	Token            string
	Amount           *big.Int
	TransactionIndex uint64
	OccurredAt       time.Time
}

// CertificateIssuedEvent announces a stamped transfer certificate.
type CertificateIssuedEvent struct {
	EventID     string
	EventType   string
	Hash        string
	Certificate entities.TransferCertificate
	OccurredAt  time.Time
}

// CertificateRedeemedEvent announces final settlement of a certificate.
// Destination is "internal" for a ledger credit, "external" for a custody
// payout to an unregistered recipient's wallet.
type CertificateRedeemedEvent struct {
	EventID     string
	EventType   string
	Hash        string
	Certificate entities.TransferCertificate
	Destination string
	OccurredAt  time.Time
}

// LedgerRepository owns all mutable ledger state. Every Apply/Create method
// commits its state change and the outbox envelope atomically, and
// ApplyRedemption must re-check the redemption registry, sequence cursor, and
// sender balance under per-sender mutual exclusion before applying.
type LedgerRepository interface {
	CreateAccount(ctx context.Context, account entities.Account, event AccountRegisteredEvent) error
	GetAccount(ctx context.Context, address string) (entities.Account, bool, error)
	ListAccounts(ctx context.Context) ([]entities.Account, error)

	ApplyDeposit(ctx context.Context, record entities.FundingRecord, event TokensDepositedEvent) (entities.FundingRecord, error)
	ListFundingRecords(ctx context.Context, sender string, limit int) ([]entities.FundingRecord, error)

	CreateCertificate(ctx context.Context, record CertificateRecord, event CertificateIssuedEvent) error
	GetCertificate(ctx context.Context, hash string) (CertificateRecord, bool, error)

	ApplyRedemption(ctx context.Context, apply RedemptionApply, event CertificateRedeemedEvent) error
}

type IdempotencyRecord struct {
	Key             string
	RequestHash     string
	ResponsePayload []byte
	ExpiresAt       time.Time
}

type IdempotencyStore interface {
	GetRecord(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	PutRecord(ctx context.Context, record IdempotencyRecord) error
}

// CustodyGateway moves value between external wallets and ledger escrow.
// Both calls either fully move the amount or leave custody untouched.
type CustodyGateway interface {
	EscrowTransferIn(ctx context.Context, holder string, token string, amount *big.Int) error
	EscrowTransferOut(ctx context.Context, token string, amount *big.Int, destination string) error
}

// CertificateVerifier checks the authorization proof attached to a redeem
// transaction. The ledger's safety invariants never depend on it; deployments
// plug in single-signer or quorum verification ahead of the state transition.
type CertificateVerifier interface {
	VerifyAuthorization(ctx context.Context, tx entities.RedeemTransaction) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
