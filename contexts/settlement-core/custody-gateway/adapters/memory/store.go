package memory

import (
	"context"
	"math/big"
	"sync"

	domainerrors "meshpay/contexts/settlement-core/custody-gateway/domain/errors"
	"meshpay/contexts/settlement-core/custody-gateway/ports"
)

// Store keeps wallet and escrow balances in memory under one lock, so each
// custody movement is atomic.
type Store struct {
	mu      sync.RWMutex
	wallets map[string]map[string]*big.Int
	escrow  map[string]*big.Int
}

func NewStore() *Store {
	return &Store{
		wallets: make(map[string]map[string]*big.Int),
		escrow:  make(map[string]*big.Int),
	}
}

func (s *Store) Mint(_ context.Context, holder string, token string, amount *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creditWalletLocked(holder, token, amount)
	return nil
}

func (s *Store) MoveToEscrow(_ context.Context, holder string, token string, amount *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance := s.walletBalanceLocked(holder, token)
	if balance.Cmp(amount) < 0 {
		return domainerrors.ErrInsufficientWalletFunds
	}
	s.wallets[holder][token] = balance.Sub(balance, amount)

	escrowed := s.escrowBalanceLocked(token)
	s.escrow[token] = escrowed.Add(escrowed, amount)
	return nil
}

func (s *Store) MoveFromEscrow(_ context.Context, token string, amount *big.Int, destination string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	escrowed := s.escrowBalanceLocked(token)
	if escrowed.Cmp(amount) < 0 {
		return domainerrors.ErrInsufficientEscrowFunds
	}
	s.escrow[token] = escrowed.Sub(escrowed, amount)
	s.creditWalletLocked(destination, token, amount)
	return nil
}

func (s *Store) WalletBalance(_ context.Context, holder string, token string) (*big.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if balances, ok := s.wallets[holder]; ok {
		if balance, ok := balances[token]; ok {
			return new(big.Int).Set(balance), nil
		}
	}
	return big.NewInt(0), nil
}

func (s *Store) EscrowBalance(_ context.Context, token string) (*big.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if balance, ok := s.escrow[token]; ok {
		return new(big.Int).Set(balance), nil
	}
	return big.NewInt(0), nil
}

func (s *Store) creditWalletLocked(holder string, token string, amount *big.Int) {
	if _, ok := s.wallets[holder]; !ok {
		s.wallets[holder] = make(map[string]*big.Int)
	}
	balance := s.walletBalanceLocked(holder, token)
	s.wallets[holder][token] = balance.Add(balance, amount)
}

func (s *Store) walletBalanceLocked(holder string, token string) *big.Int {
	if balances, ok := s.wallets[holder]; ok {
		if balance, ok := balances[token]; ok {
			return balance
		}
	}
	if _, ok := s.wallets[holder]; !ok {
		s.wallets[holder] = make(map[string]*big.Int)
	}
	zero := big.NewInt(0)
	s.wallets[holder][token] = zero
	return zero
}

func (s *Store) escrowBalanceLocked(token string) *big.Int {
	if balance, ok := s.escrow[token]; ok {
		return balance
	}
	zero := big.NewInt(0)
	s.escrow[token] = zero
	return zero
}

var _ ports.CustodyRepository = (*Store)(nil)
