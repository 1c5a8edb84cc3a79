package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/big"
	"time"

	"meshpay/contexts/settlement-core/offline-ledger/domain/entities"
	domainerrors "meshpay/contexts/settlement-core/offline-ledger/domain/errors"
	"meshpay/contexts/settlement-core/offline-ledger/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
)

// Repository is the durable ledger backed by Postgres. Redemptions lock the
// sender's account row so concurrent certificates for one sender serialize;
// every state change and its outbox envelope commit in one transaction.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateAccount(ctx context.Context, account entities.Account, event ports.AccountRegisteredEvent) error {
	envelope, err := buildRegisteredEnvelope(event)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := accountModelFromEntity(account)
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrAccountAlreadyRegistered
			}
			return err
		}
		return createOutboxRow(tx, event.EventID, event.EventType, event.Address, payload, event.OccurredAt)
	})
}

func (r *Repository) GetAccount(ctx context.Context, address string) (entities.Account, bool, error) {
	var row accountModel
	err := r.db.WithContext(ctx).
		Where("address = ?", address).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Account{}, false, nil
		}
		return entities.Account{}, false, err
	}

	var balanceRows []balanceModel
	if err := r.db.WithContext(ctx).
		Where("address = ?", address).
		Find(&balanceRows).
		Error; err != nil {
		return entities.Account{}, false, err
	}

	account, err := row.toEntity(balanceRows)
	if err != nil {
		return entities.Account{}, false, err
	}
	return account, true, nil
}

func (r *Repository) ListAccounts(ctx context.Context) ([]entities.Account, error) {
	var rows []accountModel
	if err := r.db.WithContext(ctx).
		Order("address ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	var balanceRows []balanceModel
	if err := r.db.WithContext(ctx).Find(&balanceRows).Error; err != nil {
		return nil, err
	}
	balancesByAddress := make(map[string][]balanceModel, len(rows))
	for _, balance := range balanceRows {
		balancesByAddress[balance.Address] = append(balancesByAddress[balance.Address], balance)
	}

	items := make([]entities.Account, 0, len(rows))
	for _, row := range rows {
		account, err := row.toEntity(balancesByAddress[row.Address])
		if err != nil {
			return nil, err
		}
		items = append(items, account)
	}
	return items, nil
}

func (r *Repository) ApplyDeposit(
	ctx context.Context,
	record entities.FundingRecord,
	event ports.TokensDepositedEvent,
) (entities.FundingRecord, error) {
	if record.Amount == nil || record.Amount.Sign() <= 0 {
		return entities.FundingRecord{}, domainerrors.ErrAmountMustBePositive
	}

	stored := record
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var accountRow accountModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("address = ?", record.Sender).
			First(&accountRow).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrAccountNotRegistered
			}
			return err
		}
		if !accountRow.Registered {
			return domainerrors.ErrAccountNotRegistered
		}

		fundingRow := fundingModel{
			Sender:      record.Sender,
			Token:       record.Token,
			Amount:      record.Amount.String(),
			DepositedAt: record.DepositedAt.UTC(),
		}
		if err := tx.Create(&fundingRow).Error; err != nil {
			return err
		}
		stored.TransactionIndex = fundingRow.TransactionIndex

		if err := upsertBalance(tx, record.Sender, record.Token, record.Amount); err != nil {
			return err
		}

		// The envelope carries the assigned funding index, so it can only be
		// built once the row exists inside this transaction.
		event.TransactionIndex = fundingRow.TransactionIndex
		envelope, err := buildDepositedEnvelope(event)
		if err != nil {
			return err
		}
		payload, err := json.Marshal(envelope)
		if err != nil {
			return err
		}
		return createOutboxRow(tx, event.EventID, event.EventType, event.Sender, payload, event.OccurredAt)
	})
	if err != nil {
		return entities.FundingRecord{}, err
	}
	return stored, nil
}

func (r *Repository) ListFundingRecords(ctx context.Context, sender string, limit int) ([]entities.FundingRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []fundingModel
	if err := r.db.WithContext(ctx).
		Where("sender = ?", sender).
		Order("transaction_index DESC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]entities.FundingRecord, 0, len(rows))
	for _, row := range rows {
		record, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, record)
	}
	return items, nil
}

func (r *Repository) CreateCertificate(
	ctx context.Context,
	record ports.CertificateRecord,
	event ports.CertificateIssuedEvent,
) error {
	envelope, err := buildIssuedEnvelope(event)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := certificateModelFromRecord(record)
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrCertificateAlreadyIssued
			}
			return err
		}
		return createOutboxRow(tx, event.EventID, event.EventType, record.Certificate.Sender, payload, event.OccurredAt)
	})
}

func (r *Repository) GetCertificate(ctx context.Context, hash string) (ports.CertificateRecord, bool, error) {
	var row certificateModel
	err := r.db.WithContext(ctx).
		Where("hash = ?", hash).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.CertificateRecord{}, false, nil
		}
		return ports.CertificateRecord{}, false, err
	}
	record, err := row.toRecord()
	if err != nil {
		return ports.CertificateRecord{}, false, err
	}
	return record, true, nil
}

// ApplyRedemption re-checks the redemption registry, sequence cursor, and
// sender balance while holding the sender's account row FOR UPDATE, then
// applies the debit, cursor advance, optional credit, certificate terminal
// state, and outbox row in one transaction.
func (r *Repository) ApplyRedemption(
	ctx context.Context,
	apply ports.RedemptionApply,
	event ports.CertificateRedeemedEvent,
) error {
	envelope, err := buildRedeemedEnvelope(event)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	certificate := apply.Certificate
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var senderRow accountModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("address = ?", certificate.Sender).
			First(&senderRow).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrInsufficientBalance
			}
			return err
		}

		var certificateRow certificateModel
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("hash = ?", apply.Hash).
			First(&certificateRow).
			Error
		switch {
		case err == nil:
			if certificateRow.Redeemed {
				return domainerrors.ErrCertificateAlreadyRedeemed
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			// Certificates stamped by offline mesh peers have no issued row
			// here; redemption records them terminally below.
		default:
			return err
		}

		if certificate.SequenceNumber <= senderRow.LastRedeemedSequence {
			return domainerrors.ErrInvalidSequenceNumber
		}

		var balanceRow balanceModel
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("address = ? AND token = ?", certificate.Sender, certificate.Token).
			First(&balanceRow).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrInsufficientBalance
			}
			return err
		}
		balance, ok := new(big.Int).SetString(balanceRow.Amount, 10)
		if !ok {
			return domainerrors.ErrRepositoryInvariantBroke
		}
		if balance.Cmp(certificate.Amount) < 0 {
			return domainerrors.ErrInsufficientBalance
		}

		if apply.CreditRecipient {
			var recipientRow accountModel
			if err := tx.
				Where("address = ?", certificate.Recipient).
				First(&recipientRow).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domainerrors.ErrRepositoryInvariantBroke
				}
				return err
			}
		}

		debited := new(big.Int).Sub(balance, certificate.Amount)
		if err := tx.Model(&balanceModel{}).
			Where("address = ? AND token = ?", certificate.Sender, certificate.Token).
			Update("amount", debited.String()).
			Error; err != nil {
			return err
		}

		if err := tx.Model(&accountModel{}).
			Where("address = ?", certificate.Sender).
			Update("last_redeemed_sequence", certificate.SequenceNumber).
			Error; err != nil {
			return err
		}

		if apply.CreditRecipient {
			if err := upsertBalance(tx, certificate.Recipient, certificate.Token, certificate.Amount); err != nil {
				return err
			}
		}

		redeemedAt := apply.RedeemedAt.UTC()
		terminalRow := certificateModelFromRecord(ports.CertificateRecord{
			Certificate: certificate,
			Hash:        apply.Hash,
			Redeemed:    true,
			RedeemedAt:  &redeemedAt,
		})
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "hash"}},
			DoUpdates: clause.Assignments(map[string]any{
				"redeemed":    true,
				"redeemed_at": redeemedAt,
			}),
		}).Create(&terminalRow).Error; err != nil {
			return err
		}

		return createOutboxRow(tx, event.EventID, event.EventType, certificate.Sender, payload, event.OccurredAt)
	})
}

func (r *Repository) GetRecord(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("key = ?", key).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, err
	}

	if !row.ExpiresAt.IsZero() && now.UTC().After(row.ExpiresAt.UTC()) {
		if err := r.db.WithContext(ctx).
			Where("key = ?", key).
			Delete(&idempotencyModel{}).
			Error; err != nil {
			return ports.IdempotencyRecord{}, false, err
		}
		return ports.IdempotencyRecord{}, false, nil
	}

	return row.toPort(), true, nil
}

func (r *Repository) PutRecord(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModelFromPort(record)
	createResult := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoNothing: true,
		}).
		Create(&row)
	if createResult.Error != nil {
		return createResult.Error
	}
	if createResult.RowsAffected > 0 {
		return nil
	}

	var existing idempotencyModel
	if err := r.db.WithContext(ctx).
		Where("key = ?", record.Key).
		First(&existing).
		Error; err != nil {
		return err
	}
	if existing.RequestHash != record.RequestHash {
		return domainerrors.ErrIdempotencyKeyConflict
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toPort())
	}
	return items, nil
}

func (r *Repository) MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{
			"status":  outboxStatusSent,
			"sent_at": sentAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	return nil
}

func upsertBalance(tx *gorm.DB, address string, token string, amount *big.Int) error {
	return tx.Exec(
		`INSERT INTO ledger_account_balances (address, token, amount)
		 VALUES (?, ?, ?::numeric)
		 ON CONFLICT (address, token)
		 DO UPDATE SET amount = ledger_account_balances.amount + EXCLUDED.amount`,
		address, token, amount.String(),
	).Error
}

func createOutboxRow(
	tx *gorm.DB,
	eventID string,
	eventType string,
	partitionKey string,
	payload []byte,
	occurredAt time.Time,
) error {
	row := outboxModel{
		OutboxID:     eventID,
		EventType:    eventType,
		PartitionKey: partitionKey,
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    occurredAt.UTC(),
	}
	if err := tx.Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrRepositoryInvariantBroke
		}
		return err
	}
	return nil
}

type accountModel struct {
	Address              string    `gorm:"column:address;primaryKey"`
	Registered           bool      `gorm:"column:registered"`
	RegisteredAt         time.Time `gorm:"column:registered_at"`
	LastRedeemedSequence uint64    `gorm:"column:last_redeemed_sequence"`
}

func (accountModel) TableName() string {
	return "ledger_accounts"
}

func accountModelFromEntity(account entities.Account) accountModel {
	return accountModel{
		Address:              account.Address,
		Registered:           account.Registered,
		RegisteredAt:         account.RegisteredAt.UTC(),
		LastRedeemedSequence: account.LastRedeemedSequence,
	}
}

func (m accountModel) toEntity(balances []balanceModel) (entities.Account, error) {
	account := entities.Account{
		Address:              m.Address,
		Registered:           m.Registered,
		RegisteredAt:         m.RegisteredAt.UTC(),
		LastRedeemedSequence: m.LastRedeemedSequence,
		Balances:             make(map[string]*big.Int, len(balances)),
	}
	for _, balance := range balances {
		amount, ok := new(big.Int).SetString(balance.Amount, 10)
		if !ok {
			return entities.Account{}, domainerrors.ErrRepositoryInvariantBroke
		}
		account.Balances[balance.Token] = amount
	}
	return account, nil
}

type balanceModel struct {
	Address string `gorm:"column:address;primaryKey"`
	Token   string `gorm:"column:token;primaryKey"`
	Amount  string `gorm:"column:amount"`
}

func (balanceModel) TableName() string {
	return "ledger_account_balances"
}

type fundingModel struct {
	TransactionIndex uint64    `gorm:"column:transaction_index;primaryKey;autoIncrement"`
	Sender           string    `gorm:"column:sender"`
	Token            string    `gorm:"column:token"`
	Amount           string    `gorm:"column:amount"`
	DepositedAt      time.Time `gorm:"column:deposited_at"`
}

func (fundingModel) TableName() string {
	return "ledger_funding_records"
}

func (m fundingModel) toEntity() (entities.FundingRecord, error) {
	amount, ok := new(big.Int).SetString(m.Amount, 10)
	if !ok {
		return entities.FundingRecord{}, domainerrors.ErrRepositoryInvariantBroke
	}
	return entities.FundingRecord{
		TransactionIndex: m.TransactionIndex,
		Sender:           m.Sender,
		Token:            m.Token,
		Amount:           amount,
		DepositedAt:      m.DepositedAt.UTC(),
	}, nil
}

type certificateModel struct {
	Hash           string     `gorm:"column:hash;primaryKey"`
	Sender         string     `gorm:"column:sender"`
	Recipient      string     `gorm:"column:recipient"`
	Token          string     `gorm:"column:token"`
	Amount         string     `gorm:"column:amount"`
	SequenceNumber uint64     `gorm:"column:sequence_number"`
	IssuedAt       time.Time  `gorm:"column:issued_at"`
	Redeemed       bool       `gorm:"column:redeemed"`
	RedeemedAt     *time.Time `gorm:"column:redeemed_at"`
}

func (certificateModel) TableName() string {
	return "ledger_transfer_certificates"
}

func certificateModelFromRecord(record ports.CertificateRecord) certificateModel {
	return certificateModel{
		Hash:           record.Hash,
		Sender:         record.Certificate.Sender,
		Recipient:      record.Certificate.Recipient,
		Token:          record.Certificate.Token,
		Amount:         record.Certificate.Amount.String(),
		SequenceNumber: record.Certificate.SequenceNumber,
		IssuedAt:       record.Certificate.IssuedAt.UTC(),
		Redeemed:       record.Redeemed,
		RedeemedAt:     record.RedeemedAt,
	}
}

func (m certificateModel) toRecord() (ports.CertificateRecord, error) {
	amount, ok := new(big.Int).SetString(m.Amount, 10)
	if !ok {
		return ports.CertificateRecord{}, domainerrors.ErrRepositoryInvariantBroke
	}
	return ports.CertificateRecord{
		Certificate: entities.TransferCertificate{
			Sender:         m.Sender,
			Recipient:      m.Recipient,
			Token:          m.Token,
			Amount:         amount,
			SequenceNumber: m.SequenceNumber,
			IssuedAt:       m.IssuedAt.UTC(),
		},
		Hash:       m.Hash,
		Redeemed:   m.Redeemed,
		RedeemedAt: m.RedeemedAt,
	}, nil
}

type idempotencyModel struct {
	Key             string    `gorm:"column:key;primaryKey"`
	RequestHash     string    `gorm:"column:request_hash"`
	ResponsePayload []byte    `gorm:"column:response_payload"`
	ExpiresAt       time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "offline_ledger_idempotency"
}

func idempotencyModelFromPort(record ports.IdempotencyRecord) idempotencyModel {
	return idempotencyModel{
		Key:             record.Key,
		RequestHash:     record.RequestHash,
		ResponsePayload: record.ResponsePayload,
		ExpiresAt:       record.ExpiresAt.UTC(),
	}
}

func (m idempotencyModel) toPort() ports.IdempotencyRecord {
	return ports.IdempotencyRecord{
		Key:             m.Key,
		RequestHash:     m.RequestHash,
		ResponsePayload: append([]byte(nil), m.ResponsePayload...),
		ExpiresAt:       m.ExpiresAt.UTC(),
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	SentAt       *time.Time `gorm:"column:sent_at"`
}

func (outboxModel) TableName() string {
	return "offline_ledger_outbox"
}

func (m outboxModel) toPort() ports.OutboxMessage {
	return ports.OutboxMessage{
		OutboxID:     m.OutboxID,
		EventType:    m.EventType,
		PartitionKey: m.PartitionKey,
		Payload:      append([]byte(nil), m.Payload...),
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.LedgerRepository = (*Repository)(nil)
var _ ports.IdempotencyStore = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
