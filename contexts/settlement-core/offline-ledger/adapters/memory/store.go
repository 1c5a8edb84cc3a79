package memory

import (
	"context"
	"encoding/json"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"meshpay/contexts/settlement-core/offline-ledger/domain/entities"
	domainerrors "meshpay/contexts/settlement-core/offline-ledger/domain/errors"
	"meshpay/contexts/settlement-core/offline-ledger/ports"

	"github.com/google/uuid"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
)

// Store is the in-memory ledger: the default bootstrap path and the test
// substrate. One lock guards every transition, which gives each operation the
// atomic, totally ordered semantics the ledger requires.
type Store struct {
	mu sync.RWMutex

	accounts             map[string]entities.Account
	fundingRecords       []entities.FundingRecord
	nextTransactionIndex uint64
	certificates         map[string]ports.CertificateRecord
	idempotency          map[string]ports.IdempotencyRecord
	outbox               map[string]outboxRecord
}

type outboxRecord struct {
	Message ports.OutboxMessage
	Status  string
	SentAt  *time.Time
}

func NewStore() *Store {
	return &Store{
		accounts:             make(map[string]entities.Account),
		nextTransactionIndex: 1,
		certificates:         make(map[string]ports.CertificateRecord),
		idempotency:          make(map[string]ports.IdempotencyRecord),
		outbox:               make(map[string]outboxRecord),
	}
}

func (s *Store) CreateAccount(_ context.Context, account entities.Account, event ports.AccountRegisteredEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	address := strings.TrimSpace(account.Address)
	if address == "" {
		return domainerrors.ErrInvalidAddress
	}
	if _, exists := s.accounts[address]; exists {
		return domainerrors.ErrAccountAlreadyRegistered
	}

	envelope, err := buildRegisteredEnvelope(event)
	if err != nil {
		return err
	}
	s.accounts[address] = account.Clone()
	return s.appendOutboxLocked(envelope)
}

func (s *Store) GetAccount(_ context.Context, address string) (entities.Account, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[strings.TrimSpace(address)]
	if !ok {
		return entities.Account{}, false, nil
	}
	return account.Clone(), true, nil
}

func (s *Store) ListAccounts(_ context.Context) ([]entities.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		items = append(items, account.Clone())
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Address < items[j].Address
	})
	return items, nil
}

func (s *Store) ApplyDeposit(
	_ context.Context,
	record entities.FundingRecord,
	event ports.TokensDepositedEvent,
) (entities.FundingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[record.Sender]
	if !ok || !account.Registered {
		return entities.FundingRecord{}, domainerrors.ErrAccountNotRegistered
	}
	if record.Amount == nil || record.Amount.Sign() <= 0 {
		return entities.FundingRecord{}, domainerrors.ErrAmountMustBePositive
	}

	record.TransactionIndex = s.nextTransactionIndex
	event.TransactionIndex = record.TransactionIndex
	envelope, err := buildDepositedEnvelope(event)
	if err != nil {
		return entities.FundingRecord{}, err
	}

	s.nextTransactionIndex++
	balance := account.BalanceOf(record.Token)
	account.Balances[record.Token] = balance.Add(balance, record.Amount)
	s.accounts[record.Sender] = account

	stored := record
	stored.Amount = new(big.Int).Set(record.Amount)
	s.fundingRecords = append(s.fundingRecords, stored)
	if err := s.appendOutboxLocked(envelope); err != nil {
		return entities.FundingRecord{}, err
	}
	return stored, nil
}

func (s *Store) ListFundingRecords(_ context.Context, sender string, limit int) ([]entities.FundingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	items := make([]entities.FundingRecord, 0)
	for _, record := range s.fundingRecords {
		if record.Sender == strings.TrimSpace(sender) {
			items = append(items, record)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].TransactionIndex > items[j].TransactionIndex
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) CreateCertificate(
	_ context.Context,
	record ports.CertificateRecord,
	event ports.CertificateIssuedEvent,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash := strings.TrimSpace(record.Hash)
	if hash == "" {
		return domainerrors.ErrInvalidTransferCertificate
	}
	if _, exists := s.certificates[hash]; exists {
		return domainerrors.ErrCertificateAlreadyIssued
	}

	envelope, err := buildIssuedEnvelope(event)
	if err != nil {
		return err
	}
	s.certificates[hash] = record
	return s.appendOutboxLocked(envelope)
}

func (s *Store) GetCertificate(_ context.Context, hash string) (ports.CertificateRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.certificates[strings.TrimSpace(hash)]
	if !ok {
		return ports.CertificateRecord{}, false, nil
	}
	return record, true, nil
}

// ApplyRedemption re-checks the racy admission conditions under the write
// lock before mutating anything, so two concurrent redemptions for the same
// sender serialize and the loser is rejected, never double-applied.
func (s *Store) ApplyRedemption(
	_ context.Context,
	apply ports.RedemptionApply,
	event ports.CertificateRedeemedEvent,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	certificate := apply.Certificate
	if existing, ok := s.certificates[apply.Hash]; ok && existing.Redeemed {
		return domainerrors.ErrCertificateAlreadyRedeemed
	}
	sender, ok := s.accounts[certificate.Sender]
	if !ok {
		return domainerrors.ErrInsufficientBalance
	}
	if certificate.SequenceNumber <= sender.LastRedeemedSequence {
		return domainerrors.ErrInvalidSequenceNumber
	}
	balance := sender.BalanceOf(certificate.Token)
	if balance.Cmp(certificate.Amount) < 0 {
		return domainerrors.ErrInsufficientBalance
	}
	recipient, recipientFound := s.accounts[certificate.Recipient]
	if apply.CreditRecipient && !recipientFound {
		return domainerrors.ErrRepositoryInvariantBroke
	}

	envelope, err := buildRedeemedEnvelope(event)
	if err != nil {
		return err
	}

	sender.Balances[certificate.Token] = balance.Sub(balance, certificate.Amount)
	sender.LastRedeemedSequence = certificate.SequenceNumber
	s.accounts[certificate.Sender] = sender

	if apply.CreditRecipient {
		credited := recipient.BalanceOf(certificate.Token)
		recipient.Balances[certificate.Token] = credited.Add(credited, certificate.Amount)
		s.accounts[certificate.Recipient] = recipient
	}

	redeemedAt := apply.RedeemedAt.UTC()
	s.certificates[apply.Hash] = ports.CertificateRecord{
		Certificate: certificate,
		Hash:        apply.Hash,
		Redeemed:    true,
		RedeemedAt:  &redeemedAt,
	}
	return s.appendOutboxLocked(envelope)
}

func (s *Store) GetRecord(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.idempotency[strings.TrimSpace(key)]
	if !ok {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.After(now.UTC()) {
		delete(s.idempotency, strings.TrimSpace(key))
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) PutRecord(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(record.Key)
	if key == "" {
		return domainerrors.ErrIdempotencyKeyConflict
	}
	if existing, ok := s.idempotency[key]; ok && existing.RequestHash != record.RequestHash {
		return domainerrors.ErrIdempotencyKeyConflict
	}
	s.idempotency[key] = record
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0)
	for _, row := range s.outbox {
		if row.Status == outboxStatusPending {
			items = append(items, row.Message)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxSent(_ context.Context, outboxID string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	ts := sentAt.UTC()
	row.Status = outboxStatusSent
	row.SentAt = &ts
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) appendOutboxLocked(envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	s.outbox[envelope.EventID] = outboxRecord{
		Message: ports.OutboxMessage{
			OutboxID:     envelope.EventID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAt.UTC(),
		},
		Status: outboxStatusPending,
	}
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.LedgerRepository = (*Store)(nil)
var _ ports.IdempotencyStore = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
