package unit

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	custodygateway "meshpay/contexts/settlement-core/custody-gateway"
	offlineledger "meshpay/contexts/settlement-core/offline-ledger"
	"meshpay/contexts/settlement-core/offline-ledger/adapters/memory"
	ledgererrors "meshpay/contexts/settlement-core/offline-ledger/domain/errors"
	ledgerhttp "meshpay/contexts/settlement-core/offline-ledger/transport/http"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

type ledgerFixture struct {
	ledger  offlineledger.Module
	custody custodygateway.Module
	clock   *fakeClock
}

func newLedgerFixture(t *testing.T) ledgerFixture {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	custody := custodygateway.NewInMemoryModule(nil)
	store := memory.NewStore()
	ledger := offlineledger.NewModule(offlineledger.Dependencies{
		Ledger:         store,
		Idempotency:    store,
		Custody:        custody.Service,
		Clock:          clock,
		IDGenerator:    store,
		ExpiryWindow:   24 * time.Hour,
		IdempotencyTTL: 7 * 24 * time.Hour,
	})
	ledger.Store = store
	return ledgerFixture{ledger: ledger, custody: custody, clock: clock}
}

func (f ledgerFixture) register(t *testing.T, address string) {
	t.Helper()
	if _, err := f.ledger.Handler.RegisterAccountHandler(context.Background(), ledgerhttp.RegisterAccountRequest{
		Address: address,
	}); err != nil {
		t.Fatalf("register %s failed: %v", address, err)
	}
}

func (f ledgerFixture) mintAndFund(t *testing.T, address string, token string, amount string) {
	t.Helper()
	ctx := context.Background()
	value, ok := new(big.Int).SetString(amount, 10)
	if !ok {
		t.Fatalf("bad amount %q", amount)
	}
	if err := f.custody.Service.Mint(ctx, address, token, value); err != nil {
		t.Fatalf("mint %s failed: %v", address, err)
	}
	if _, err := f.ledger.Handler.FundAccountHandler(ctx, address, ledgerhttp.FundAccountRequest{
		Token:  token,
		Amount: amount,
	}, ""); err != nil {
		t.Fatalf("fund %s failed: %v", address, err)
	}
}

func (f ledgerFixture) issue(
	t *testing.T,
	sender string,
	recipient string,
	token string,
	amount string,
	sequence uint64,
) ledgerhttp.CertificateDTO {
	t.Helper()
	resp, err := f.ledger.Handler.IssueCertificateHandler(context.Background(), ledgerhttp.IssueCertificateRequest{
		Sender:         sender,
		Recipient:      recipient,
		Token:          token,
		Amount:         amount,
		SequenceNumber: sequence,
	})
	if err != nil {
		t.Fatalf("issue certificate seq %d failed: %v", sequence, err)
	}
	return resp.Item
}

func (f ledgerFixture) redeem(t *testing.T, item ledgerhttp.CertificateDTO) (ledgerhttp.RedeemCertificateResponse, error) {
	t.Helper()
	return f.ledger.Handler.RedeemCertificateHandler(context.Background(), ledgerhttp.RedeemCertificateRequest{
		Sender:         item.Sender,
		Recipient:      item.Recipient,
		Token:          item.Token,
		Amount:         item.Amount,
		SequenceNumber: item.SequenceNumber,
		IssuedAt:       item.IssuedAt,
	})
}

func (f ledgerFixture) balance(t *testing.T, address string, token string) string {
	t.Helper()
	resp, err := f.ledger.Handler.GetAccountHandler(context.Background(), address)
	if err != nil {
		t.Fatalf("get account %s failed: %v", address, err)
	}
	for _, balance := range resp.Item.Balances {
		if balance.Token == token {
			return balance.Amount
		}
	}
	return "0"
}

func TestOfflineLedgerInternalSettlement(t *testing.T) {
	f := newLedgerFixture(t)
	f.register(t, "alice")
	f.register(t, "bob")
	f.mintAndFund(t, "alice", "tkn", "100")

	item := f.issue(t, "alice", "bob", "tkn", "30", 1)
	resp, err := f.redeem(t, item)
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if resp.Destination != "internal" {
		t.Fatalf("expected internal destination, got %s", resp.Destination)
	}
	if resp.Hash != item.Hash {
		t.Fatalf("expected hash %s, got %s", item.Hash, resp.Hash)
	}

	if got := f.balance(t, "alice", "tkn"); got != "70" {
		t.Fatalf("expected alice balance 70, got %s", got)
	}
	if got := f.balance(t, "bob", "tkn"); got != "30" {
		t.Fatalf("expected bob balance 30, got %s", got)
	}

	account, err := f.ledger.Handler.GetAccountHandler(context.Background(), "alice")
	if err != nil {
		t.Fatalf("get alice failed: %v", err)
	}
	if account.Item.LastRedeemedSequence != 1 {
		t.Fatalf("expected cursor 1, got %d", account.Item.LastRedeemedSequence)
	}
}

func TestOfflineLedgerExternalPayout(t *testing.T) {
	f := newLedgerFixture(t)
	f.register(t, "alice")
	f.mintAndFund(t, "alice", "tkn", "100")

	item := f.issue(t, "alice", "carol", "tkn", "40", 1)
	resp, err := f.redeem(t, item)
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if resp.Destination != "external" {
		t.Fatalf("expected external destination, got %s", resp.Destination)
	}

	wallet, err := f.custody.Service.WalletBalance(context.Background(), "carol", "tkn")
	if err != nil {
		t.Fatalf("wallet balance failed: %v", err)
	}
	if wallet.String() != "40" {
		t.Fatalf("expected carol wallet 40, got %s", wallet.String())
	}
	escrow, err := f.custody.Service.EscrowBalance(context.Background(), "tkn")
	if err != nil {
		t.Fatalf("escrow balance failed: %v", err)
	}
	if escrow.String() != "60" {
		t.Fatalf("expected escrow 60, got %s", escrow.String())
	}
}

func TestOfflineLedgerDoubleRedemptionRejected(t *testing.T) {
	f := newLedgerFixture(t)
	f.register(t, "alice")
	f.register(t, "bob")
	f.mintAndFund(t, "alice", "tkn", "100")

	item := f.issue(t, "alice", "bob", "tkn", "30", 1)
	if _, err := f.redeem(t, item); err != nil {
		t.Fatalf("first redeem failed: %v", err)
	}
	if _, err := f.redeem(t, item); !errors.Is(err, ledgererrors.ErrCertificateAlreadyRedeemed) {
		t.Fatalf("expected already redeemed, got %v", err)
	}
	if got := f.balance(t, "bob", "tkn"); got != "30" {
		t.Fatalf("expected bob balance unchanged at 30, got %s", got)
	}
}

func TestOfflineLedgerReplayedCertificateBeatsStaleSequence(t *testing.T) {
	f := newLedgerFixture(t)
	f.register(t, "alice")
	f.register(t, "bob")
	f.mintAndFund(t, "alice", "tkn", "100")

	first := f.issue(t, "alice", "bob", "tkn", "10", 1)
	if _, err := f.redeem(t, first); err != nil {
		t.Fatalf("redeem seq 1 failed: %v", err)
	}
	second := f.issue(t, "alice", "bob", "tkn", "10", 2)
	if _, err := f.redeem(t, second); err != nil {
		t.Fatalf("redeem seq 2 failed: %v", err)
	}

	// The replayed certificate is both already redeemed and below the cursor;
	// the replay verdict must win.
	if _, err := f.redeem(t, first); !errors.Is(err, ledgererrors.ErrCertificateAlreadyRedeemed) {
		t.Fatalf("expected already redeemed, got %v", err)
	}
}

func TestOfflineLedgerSkippedSequenceForfeitsLowerCertificates(t *testing.T) {
	f := newLedgerFixture(t)
	f.register(t, "alice")
	f.register(t, "bob")
	f.mintAndFund(t, "alice", "tkn", "100")

	lower := f.issue(t, "alice", "bob", "tkn", "10", 3)
	higher := f.issue(t, "alice", "bob", "tkn", "10", 5)

	if _, err := f.redeem(t, higher); err != nil {
		t.Fatalf("redeem seq 5 failed: %v", err)
	}
	if _, err := f.redeem(t, lower); !errors.Is(err, ledgererrors.ErrInvalidSequenceNumber) {
		t.Fatalf("expected stale sequence rejection, got %v", err)
	}
}

func TestOfflineLedgerExpiryWindowBoundary(t *testing.T) {
	f := newLedgerFixture(t)
	f.register(t, "alice")
	f.register(t, "bob")
	f.mintAndFund(t, "alice", "tkn", "100")

	atBoundary := f.issue(t, "alice", "bob", "tkn", "10", 1)
	pastBoundary := f.issue(t, "alice", "bob", "tkn", "10", 2)

	// Exactly at issued_at + window the certificate is still redeemable.
	f.clock.now = f.clock.now.Add(24 * time.Hour)
	if _, err := f.redeem(t, atBoundary); err != nil {
		t.Fatalf("redeem at expiry boundary failed: %v", err)
	}

	f.clock.now = f.clock.now.Add(time.Second)
	if _, err := f.redeem(t, pastBoundary); !errors.Is(err, ledgererrors.ErrCertificateExpired) {
		t.Fatalf("expected expired rejection, got %v", err)
	}
}

func TestOfflineLedgerIssuanceLocksNothing(t *testing.T) {
	f := newLedgerFixture(t)
	f.register(t, "alice")
	f.register(t, "bob")
	f.mintAndFund(t, "alice", "tkn", "100")

	first := f.issue(t, "alice", "bob", "tkn", "60", 1)
	second := f.issue(t, "alice", "bob", "tkn", "60", 2)

	if _, err := f.redeem(t, first); err != nil {
		t.Fatalf("redeem first failed: %v", err)
	}
	if _, err := f.redeem(t, second); !errors.Is(err, ledgererrors.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	if got := f.balance(t, "alice", "tkn"); got != "40" {
		t.Fatalf("expected alice balance 40, got %s", got)
	}
}

func TestOfflineLedgerIssueRequiresRegisteredSenderAndLiveBalance(t *testing.T) {
	f := newLedgerFixture(t)
	f.register(t, "alice")
	f.mintAndFund(t, "alice", "tkn", "20")

	if _, err := f.ledger.Handler.IssueCertificateHandler(context.Background(), ledgerhttp.IssueCertificateRequest{
		Sender:         "ghost",
		Recipient:      "alice",
		Token:          "tkn",
		Amount:         "10",
		SequenceNumber: 1,
	}); !errors.Is(err, ledgererrors.ErrAccountNotRegistered) {
		t.Fatalf("expected not registered, got %v", err)
	}

	if _, err := f.ledger.Handler.IssueCertificateHandler(context.Background(), ledgerhttp.IssueCertificateRequest{
		Sender:         "alice",
		Recipient:      "bob",
		Token:          "tkn",
		Amount:         "30",
		SequenceNumber: 1,
	}); !errors.Is(err, ledgererrors.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}

	if _, err := f.ledger.Handler.IssueCertificateHandler(context.Background(), ledgerhttp.IssueCertificateRequest{
		Sender:         "alice",
		Recipient:      "alice",
		Token:          "tkn",
		Amount:         "10",
		SequenceNumber: 1,
	}); !errors.Is(err, ledgererrors.ErrInvalidTransferCertificate) {
		t.Fatalf("expected invalid certificate for self transfer, got %v", err)
	}

	if _, err := f.ledger.Handler.IssueCertificateHandler(context.Background(), ledgerhttp.IssueCertificateRequest{
		Sender:         "alice",
		Recipient:      "bob",
		Token:          "tkn",
		Amount:         "10",
		SequenceNumber: 0,
	}); !errors.Is(err, ledgererrors.ErrInvalidSequenceNumber) {
		t.Fatalf("expected invalid sequence, got %v", err)
	}
}

func TestOfflineLedgerRegisterConflict(t *testing.T) {
	f := newLedgerFixture(t)
	f.register(t, "alice")

	if _, err := f.ledger.Handler.RegisterAccountHandler(context.Background(), ledgerhttp.RegisterAccountRequest{
		Address: "alice",
	}); !errors.Is(err, ledgererrors.ErrAccountAlreadyRegistered) {
		t.Fatalf("expected already registered, got %v", err)
	}
}

func TestOfflineLedgerFundingRequiresRegistrationAndWalletFunds(t *testing.T) {
	f := newLedgerFixture(t)

	if _, err := f.ledger.Handler.FundAccountHandler(context.Background(), "ghost", ledgerhttp.FundAccountRequest{
		Token:  "tkn",
		Amount: "10",
	}, ""); !errors.Is(err, ledgererrors.ErrAccountNotRegistered) {
		t.Fatalf("expected not registered, got %v", err)
	}

	f.register(t, "alice")
	if _, err := f.ledger.Handler.FundAccountHandler(context.Background(), "alice", ledgerhttp.FundAccountRequest{
		Token:  "tkn",
		Amount: "10",
	}, ""); !errors.Is(err, ledgererrors.ErrCustodyTransferFailed) {
		t.Fatalf("expected custody transfer failure on empty wallet, got %v", err)
	}
}

func TestOfflineLedgerFundingIdempotencyReplay(t *testing.T) {
	f := newLedgerFixture(t)
	f.register(t, "alice")
	ctx := context.Background()
	if err := f.custody.Service.Mint(ctx, "alice", "tkn", big.NewInt(100)); err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	first, err := f.ledger.Handler.FundAccountHandler(ctx, "alice", ledgerhttp.FundAccountRequest{
		Token:  "tkn",
		Amount: "25",
	}, "idem-fund-1")
	if err != nil {
		t.Fatalf("first funding failed: %v", err)
	}
	second, err := f.ledger.Handler.FundAccountHandler(ctx, "alice", ledgerhttp.FundAccountRequest{
		Token:  "tkn",
		Amount: "25",
	}, "idem-fund-1")
	if err != nil {
		t.Fatalf("second funding failed: %v", err)
	}
	if !second.Replayed {
		t.Fatalf("expected replayed result on duplicate idempotency key")
	}
	if first.TransactionIndex != second.TransactionIndex {
		t.Fatalf("expected same transaction index, got %d and %d", first.TransactionIndex, second.TransactionIndex)
	}
	if got := f.balance(t, "alice", "tkn"); got != "25" {
		t.Fatalf("expected single credit of 25, got %s", got)
	}

	if _, err := f.ledger.Handler.FundAccountHandler(ctx, "alice", ledgerhttp.FundAccountRequest{
		Token:  "tkn",
		Amount: "30",
	}, "idem-fund-1"); !errors.Is(err, ledgererrors.ErrIdempotencyKeyConflict) {
		t.Fatalf("expected idempotency conflict on different payload, got %v", err)
	}
}

func TestOfflineLedgerValueConservation(t *testing.T) {
	f := newLedgerFixture(t)
	f.register(t, "alice")
	f.register(t, "bob")
	ctx := context.Background()
	if err := f.custody.Service.Mint(ctx, "alice", "tkn", big.NewInt(1000)); err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	total := func() *big.Int {
		sum := new(big.Int)
		for _, holder := range []string{"alice", "bob", "carol"} {
			wallet, err := f.custody.Service.WalletBalance(ctx, holder, "tkn")
			if err != nil {
				t.Fatalf("wallet balance failed: %v", err)
			}
			sum.Add(sum, wallet)
		}
		escrow, err := f.custody.Service.EscrowBalance(ctx, "tkn")
		if err != nil {
			t.Fatalf("escrow balance failed: %v", err)
		}
		return sum.Add(sum, escrow)
	}

	before := total().String()

	if _, err := f.ledger.Handler.FundAccountHandler(ctx, "alice", ledgerhttp.FundAccountRequest{
		Token:  "tkn",
		Amount: "400",
	}, ""); err != nil {
		t.Fatalf("fund failed: %v", err)
	}
	internal := f.issue(t, "alice", "bob", "tkn", "150", 1)
	if _, err := f.redeem(t, internal); err != nil {
		t.Fatalf("internal redeem failed: %v", err)
	}
	external := f.issue(t, "alice", "carol", "tkn", "100", 2)
	if _, err := f.redeem(t, external); err != nil {
		t.Fatalf("external redeem failed: %v", err)
	}

	// Internal credits stay escrow-backed, so custody total never changes.
	if after := total().String(); after != before {
		t.Fatalf("custody total changed: before %s after %s", before, after)
	}

	escrow, err := f.custody.Service.EscrowBalance(ctx, "tkn")
	if err != nil {
		t.Fatalf("escrow balance failed: %v", err)
	}
	ledgerTotal := new(big.Int)
	for _, address := range []string{"alice", "bob"} {
		value, ok := new(big.Int).SetString(f.balance(t, address, "tkn"), 10)
		if !ok {
			t.Fatalf("bad ledger balance")
		}
		ledgerTotal.Add(ledgerTotal, value)
	}
	if escrow.Cmp(ledgerTotal) != 0 {
		t.Fatalf("escrow %s does not back ledger total %s", escrow.String(), ledgerTotal.String())
	}
}

func TestOfflineLedgerUnknownSenderRedemptionFailsOnBalance(t *testing.T) {
	f := newLedgerFixture(t)
	f.register(t, "bob")

	now := f.clock.now.Format(time.RFC3339)
	if _, err := f.ledger.Handler.RedeemCertificateHandler(context.Background(), ledgerhttp.RedeemCertificateRequest{
		Sender:         "ghost",
		Recipient:      "bob",
		Token:          "tkn",
		Amount:         "10",
		SequenceNumber: 1,
		IssuedAt:       now,
	}); !errors.Is(err, ledgererrors.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance for unknown sender, got %v", err)
	}
}
