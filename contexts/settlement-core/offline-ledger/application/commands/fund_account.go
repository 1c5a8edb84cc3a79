package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	application "meshpay/contexts/settlement-core/offline-ledger/application"
	"meshpay/contexts/settlement-core/offline-ledger/domain/entities"
	domainerrors "meshpay/contexts/settlement-core/offline-ledger/domain/errors"
	"meshpay/contexts/settlement-core/offline-ledger/ports"
)

const tokensDepositedEventType = "ledger.tokens_deposited"

type FundAccountCommand struct {
	Sender         string
	Token          string
	Amount         *big.Int
	IdempotencyKey string
}

type FundAccountResult struct {
	Record   entities.FundingRecord
	Replayed bool
}

// FundAccountUseCase moves external token value into ledger escrow and
// credits the sender's internal balance. Custody movement happens before the
// ledger write; if the write fails the custody leg is compensated so callers
// observe all-or-nothing.
type FundAccountUseCase struct {
	Ledger         ports.LedgerRepository
	Custody        ports.CustodyGateway
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

type fundingReplayPayload struct {
	TransactionIndex uint64 `json:"transaction_index"`
	Sender           string `json:"sender"`
	Token            string `json:"token"`
	Amount           string `json:"amount"`
	DepositedAt      string `json:"deposited_at"`
}

func (u FundAccountUseCase) Execute(ctx context.Context, cmd FundAccountCommand) (FundAccountResult, error) {
	logger := application.ResolveLogger(u.Logger)
	sender := strings.TrimSpace(cmd.Sender)
	token := strings.TrimSpace(cmd.Token)
	if sender == "" {
		return FundAccountResult{}, domainerrors.ErrInvalidAddress
	}
	if token == "" {
		return FundAccountResult{}, domainerrors.ErrInvalidToken
	}
	if cmd.Amount == nil || cmd.Amount.Sign() <= 0 {
		return FundAccountResult{}, domainerrors.ErrAmountMustBePositive
	}

	now := u.now()
	idempotencyKey := strings.TrimSpace(cmd.IdempotencyKey)
	requestHash := hashFundingRequest(sender, token, cmd.Amount)

	if idempotencyKey != "" && u.Idempotency != nil {
		record, found, err := u.Idempotency.GetRecord(ctx, idempotencyKey, now)
		if err != nil {
			return FundAccountResult{}, err
		}
		if found {
			if record.RequestHash != requestHash {
				return FundAccountResult{}, domainerrors.ErrIdempotencyKeyConflict
			}
			replayed, err := decodeFundingReplay(record.ResponsePayload)
			if err != nil {
				return FundAccountResult{}, err
			}
			logger.Info("funding replayed from idempotency",
				"event", "fund_account_replayed",
				"module", "settlement-core/offline-ledger",
				"layer", "application",
				"sender", sender,
				"transaction_index", replayed.TransactionIndex,
			)
			return FundAccountResult{Record: replayed, Replayed: true}, nil
		}
	}

	account, found, err := u.Ledger.GetAccount(ctx, sender)
	if err != nil {
		return FundAccountResult{}, err
	}
	if !found || !account.Registered {
		return FundAccountResult{}, domainerrors.ErrAccountNotRegistered
	}

	if err := u.Custody.EscrowTransferIn(ctx, sender, token, cmd.Amount); err != nil {
		logger.Warn("custody escrow-in rejected",
			"event", "fund_account_custody_failed",
			"module", "settlement-core/offline-ledger",
			"layer", "application",
			"sender", sender,
			"token", token,
			"error", err.Error(),
		)
		return FundAccountResult{}, domainerrors.ErrCustodyTransferFailed
	}

	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		u.compensateEscrowIn(ctx, sender, token, cmd.Amount, logger)
		return FundAccountResult{}, err
	}

	record, err := u.Ledger.ApplyDeposit(ctx, entities.FundingRecord{
		Sender:      sender,
		Token:       token,
		Amount:      new(big.Int).Set(cmd.Amount),
		DepositedAt: now,
	}, ports.TokensDepositedEvent{
		EventID:    eventID,
		EventType:  tokensDepositedEventType,
		Sender:     sender,
		Token:      token,
		Amount:     new(big.Int).Set(cmd.Amount),
		OccurredAt: now,
	})
	if err != nil {
		u.compensateEscrowIn(ctx, sender, token, cmd.Amount, logger)
		return FundAccountResult{}, err
	}

	if idempotencyKey != "" && u.Idempotency != nil {
		payload, err := json.Marshal(fundingReplayPayload{
			TransactionIndex: record.TransactionIndex,
			Sender:           record.Sender,
			Token:            record.Token,
			Amount:           record.Amount.String(),
			DepositedAt:      record.DepositedAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return FundAccountResult{}, err
		}
		if err := u.Idempotency.PutRecord(ctx, ports.IdempotencyRecord{
			Key:             idempotencyKey,
			RequestHash:     requestHash,
			ResponsePayload: payload,
			ExpiresAt:       now.Add(u.idempotencyTTL()),
		}); err != nil {
			return FundAccountResult{}, err
		}
	}

	logger.Info("account funded",
		"event", "tokens_deposited",
		"module", "settlement-core/offline-ledger",
		"layer", "application",
		"sender", sender,
		"token", token,
		"amount", record.Amount.String(),
		"transaction_index", record.TransactionIndex,
	)
	return FundAccountResult{Record: record}, nil
}

// compensateEscrowIn reverses a custody escrow-in whose ledger write never
// committed. Failure here leaves value stranded in escrow and is surfaced
// loudly for operator reconciliation.
func (u FundAccountUseCase) compensateEscrowIn(
	ctx context.Context,
	sender string,
	token string,
	amount *big.Int,
	logger *slog.Logger,
) {
	if err := u.Custody.EscrowTransferOut(ctx, token, amount, sender); err != nil {
		logger.Error("custody compensation failed",
			"event", "fund_account_compensation_failed",
			"module", "settlement-core/offline-ledger",
			"layer", "application",
			"sender", sender,
			"token", token,
			"amount", amount.String(),
			"error", err.Error(),
		)
	}
}

func (u FundAccountUseCase) idempotencyTTL() time.Duration {
	if u.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return u.IdempotencyTTL
}

func (u FundAccountUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}

func decodeFundingReplay(payload []byte) (entities.FundingRecord, error) {
	var replay fundingReplayPayload
	if err := json.Unmarshal(payload, &replay); err != nil {
		return entities.FundingRecord{}, err
	}
	amount, ok := new(big.Int).SetString(replay.Amount, 10)
	if !ok {
		return entities.FundingRecord{}, domainerrors.ErrAmountMustBePositive
	}
	depositedAt, err := time.Parse(time.RFC3339Nano, replay.DepositedAt)
	if err != nil {
		return entities.FundingRecord{}, err
	}
	return entities.FundingRecord{
		TransactionIndex: replay.TransactionIndex,
		Sender:           replay.Sender,
		Token:            replay.Token,
		Amount:           amount,
		DepositedAt:      depositedAt,
	}, nil
}

func hashFundingRequest(sender string, token string, amount *big.Int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s", sender, token, amount.String())))
	return hex.EncodeToString(sum[:])
}
