package entities

import (
	"math/big"
	"strings"
	"time"

	domainerrors "meshpay/contexts/settlement-core/offline-ledger/domain/errors"
)

// Account is a registered ledger participant. Balances are internal escrowed
// value per token; LastRedeemedSequence is the sender's redemption high-water
// mark and never decreases.
type Account struct {
	Address              string
	Registered           bool
	RegisteredAt         time.Time
	LastRedeemedSequence uint64
	Balances             map[string]*big.Int
}

func NewAccount(address string, registeredAt time.Time) (Account, error) {
	if strings.TrimSpace(address) == "" {
		return Account{}, domainerrors.ErrInvalidAddress
	}
	return Account{
		Address:      strings.TrimSpace(address),
		Registered:   true,
		RegisteredAt: registeredAt.UTC(),
		Balances:     make(map[string]*big.Int),
	}, nil
}

// BalanceOf never returns nil; absent tokens read as zero.
func (a Account) BalanceOf(token string) *big.Int {
	if a.Balances == nil {
		return new(big.Int)
	}
	balance, ok := a.Balances[token]
	if !ok || balance == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(balance)
}

func (a Account) Clone() Account {
	cloned := a
	cloned.Balances = make(map[string]*big.Int, len(a.Balances))
	for token, balance := range a.Balances {
		cloned.Balances[token] = new(big.Int).Set(balance)
	}
	return cloned
}

// FundingRecord is an append-only deposit audit row. TransactionIndex is
// globally unique and strictly increasing across all senders.
type FundingRecord struct {
	TransactionIndex uint64
	Sender           string
	Token            string
	Amount           *big.Int
	DepositedAt      time.Time
}
