package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "meshpay/contexts/settlement-core/offline-ledger/application"
	"meshpay/contexts/settlement-core/offline-ledger/domain/entities"
	domainerrors "meshpay/contexts/settlement-core/offline-ledger/domain/errors"
	"meshpay/contexts/settlement-core/offline-ledger/ports"
)

const accountRegisteredEventType = "ledger.account_registered"

type RegisterAccountCommand struct {
	Address string
}

type RegisterAccountResult struct {
	Account entities.Account
}

// RegisterAccountUseCase creates a ledger account. Registration is
// permissionless (any caller may register any address) and idempotent-checked:
// a second registration errors instead of no-oping so callers can detect
// programming mistakes.
type RegisterAccountUseCase struct {
	Ledger      ports.LedgerRepository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (u RegisterAccountUseCase) Execute(ctx context.Context, cmd RegisterAccountCommand) (RegisterAccountResult, error) {
	logger := application.ResolveLogger(u.Logger)
	address := strings.TrimSpace(cmd.Address)
	if address == "" {
		return RegisterAccountResult{}, domainerrors.ErrInvalidAddress
	}

	now := u.now()
	if _, found, err := u.Ledger.GetAccount(ctx, address); err != nil {
		return RegisterAccountResult{}, err
	} else if found {
		logger.Warn("account already registered",
			"event", "register_account_conflict",
			"module", "settlement-core/offline-ledger",
			"layer", "application",
			"address", address,
		)
		return RegisterAccountResult{}, domainerrors.ErrAccountAlreadyRegistered
	}

	account, err := entities.NewAccount(address, now)
	if err != nil {
		return RegisterAccountResult{}, err
	}

	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return RegisterAccountResult{}, err
	}
	event := ports.AccountRegisteredEvent{
		EventID:    eventID,
		EventType:  accountRegisteredEventType,
		Address:    address,
		OccurredAt: now,
	}

	if err := u.Ledger.CreateAccount(ctx, account, event); err != nil {
		return RegisterAccountResult{}, err
	}

	logger.Info("account registered",
		"event", "account_registered",
		"module", "settlement-core/offline-ledger",
		"layer", "application",
		"address", address,
	)
	return RegisterAccountResult{Account: account}, nil
}

func (u RegisterAccountUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
