package httpadapter

import (
	"context"
	"encoding/base64"
	"log/slog"
	"math/big"
	"sort"
	"strings"
	"time"

	application "meshpay/contexts/settlement-core/offline-ledger/application"
	"meshpay/contexts/settlement-core/offline-ledger/application/commands"
	"meshpay/contexts/settlement-core/offline-ledger/application/queries"
	"meshpay/contexts/settlement-core/offline-ledger/domain/entities"
	domainerrors "meshpay/contexts/settlement-core/offline-ledger/domain/errors"
	"meshpay/contexts/settlement-core/offline-ledger/ports"
	httptransport "meshpay/contexts/settlement-core/offline-ledger/transport/http"
)

type Handler struct {
	RegisterAccount    commands.RegisterAccountUseCase
	FundAccount        commands.FundAccountUseCase
	IssueCertificate   commands.IssueCertificateUseCase
	RedeemCertificate  commands.RedeemCertificateUseCase
	GetAccount         queries.GetAccountUseCase
	ListAccounts       queries.ListAccountsUseCase
	GetCertificate     queries.GetCertificateUseCase
	ListFundingRecords queries.ListFundingRecordsUseCase
	Logger             *slog.Logger
}

// RegisterAccountHandler godoc
// @Summary Register a ledger account
// @Description Creates a settlement account for an address. Registration is permissionless.
// @Tags offline-ledger
// @Accept json
// @Produce json
// @Param X-Request-Id header string true "Request correlation id"
// @Param request body httptransport.RegisterAccountRequest true "Registration payload"
// @Success 200 {object} httptransport.RegisterAccountResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /ledger/accounts [post]
func (h Handler) RegisterAccountHandler(
	ctx context.Context,
	req httptransport.RegisterAccountRequest,
) (httptransport.RegisterAccountResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("register account request received",
		"event", "http_register_account_received",
		"module", "settlement-core/offline-ledger",
		"layer", "transport",
	)

	result, err := h.RegisterAccount.Execute(ctx, commands.RegisterAccountCommand{
		Address: req.Address,
	})
	if err != nil {
		return httptransport.RegisterAccountResponse{}, err
	}
	return httptransport.RegisterAccountResponse{
		Address:              result.Account.Address,
		RegisteredAt:         result.Account.RegisteredAt.UTC().Format(time.RFC3339),
		LastRedeemedSequence: result.Account.LastRedeemedSequence,
	}, nil
}

// GetAccountHandler godoc
// @Summary Get a ledger account
// @Description Returns one account with its balances and redeemed-sequence cursor.
// @Tags offline-ledger
// @Accept json
// @Produce json
// @Param X-Request-Id header string true "Request correlation id"
// @Param address path string true "Account address"
// @Success 200 {object} httptransport.GetAccountResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /ledger/accounts/{address} [get]
func (h Handler) GetAccountHandler(ctx context.Context, address string) (httptransport.GetAccountResponse, error) {
	result, err := h.GetAccount.Execute(ctx, queries.GetAccountQuery{Address: address})
	if err != nil {
		return httptransport.GetAccountResponse{}, err
	}
	return httptransport.GetAccountResponse{Item: mapAccount(result.Account)}, nil
}

// ListAccountsHandler godoc
// @Summary List ledger accounts
// @Description Returns all registered accounts ordered by address.
// @Tags offline-ledger
// @Accept json
// @Produce json
// @Param X-Request-Id header string true "Request correlation id"
// @Success 200 {object} httptransport.ListAccountsResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /ledger/accounts [get]
func (h Handler) ListAccountsHandler(ctx context.Context) (httptransport.ListAccountsResponse, error) {
	result, err := h.ListAccounts.Execute(ctx)
	if err != nil {
		return httptransport.ListAccountsResponse{}, err
	}
	items := make([]httptransport.AccountDTO, 0, len(result.Accounts))
	for _, account := range result.Accounts {
		items = append(items, mapAccount(account))
	}
	return httptransport.ListAccountsResponse{Items: items}, nil
}

// FundAccountHandler godoc
// @Summary Fund a ledger account
// @Description Moves external token value into escrow and credits the sender's balance.
// @Tags offline-ledger
// @Accept json
// @Produce json
// @Param X-Request-Id header string true "Request correlation id"
// @Param Idempotency-Key header string false "Idempotency key"
// @Param address path string true "Sender address"
// @Param request body httptransport.FundAccountRequest true "Funding payload"
// @Success 200 {object} httptransport.FundAccountResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 422 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /ledger/accounts/{address}/fund [post]
func (h Handler) FundAccountHandler(
	ctx context.Context,
	address string,
	req httptransport.FundAccountRequest,
	idempotencyKey string,
) (httptransport.FundAccountResponse, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return httptransport.FundAccountResponse{}, err
	}

	result, err := h.FundAccount.Execute(ctx, commands.FundAccountCommand{
		Sender:         address,
		Token:          req.Token,
		Amount:         amount,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return httptransport.FundAccountResponse{}, err
	}
	return httptransport.FundAccountResponse{
		TransactionIndex: result.Record.TransactionIndex,
		Sender:           result.Record.Sender,
		Token:            result.Record.Token,
		Amount:           result.Record.Amount.String(),
		DepositedAt:      result.Record.DepositedAt.UTC().Format(time.RFC3339),
		Replayed:         result.Replayed,
	}, nil
}

// ListFundingRecordsHandler godoc
// @Summary List funding records
// @Description Returns funding history for an address, newest first.
// @Tags offline-ledger
// @Accept json
// @Produce json
// @Param X-Request-Id header string true "Request correlation id"
// @Param address path string true "Sender address"
// @Param limit query int false "Page size (default 50)"
// @Success 200 {object} httptransport.ListFundingRecordsResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /ledger/accounts/{address}/funding-records [get]
func (h Handler) ListFundingRecordsHandler(
	ctx context.Context,
	address string,
	limit int,
) (httptransport.ListFundingRecordsResponse, error) {
	result, err := h.ListFundingRecords.Execute(ctx, queries.ListFundingRecordsQuery{
		Sender: address,
		Limit:  limit,
	})
	if err != nil {
		return httptransport.ListFundingRecordsResponse{}, err
	}
	items := make([]httptransport.FundingRecordDTO, 0, len(result.Records))
	for _, record := range result.Records {
		items = append(items, httptransport.FundingRecordDTO{
			TransactionIndex: record.TransactionIndex,
			Sender:           record.Sender,
			Token:            record.Token,
			Amount:           record.Amount.String(),
			DepositedAt:      record.DepositedAt.UTC().Format(time.RFC3339),
		})
	}
	return httptransport.ListFundingRecordsResponse{Items: items}, nil
}

// IssueCertificateHandler godoc
// @Summary Issue a transfer certificate
// @Description Stamps a transfer request into a content-addressed certificate. No balance is locked.
// @Tags offline-ledger
// @Accept json
// @Produce json
// @Param X-Request-Id header string true "Request correlation id"
// @Param request body httptransport.IssueCertificateRequest true "Certificate payload"
// @Success 200 {object} httptransport.IssueCertificateResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 422 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /ledger/certificates [post]
func (h Handler) IssueCertificateHandler(
	ctx context.Context,
	req httptransport.IssueCertificateRequest,
) (httptransport.IssueCertificateResponse, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return httptransport.IssueCertificateResponse{}, err
	}

	result, err := h.IssueCertificate.Execute(ctx, commands.IssueCertificateCommand{
		Sender:         req.Sender,
		Recipient:      req.Recipient,
		Token:          req.Token,
		Amount:         amount,
		SequenceNumber: req.SequenceNumber,
	})
	if err != nil {
		return httptransport.IssueCertificateResponse{}, err
	}
	return httptransport.IssueCertificateResponse{Item: mapCertificate(result.Record)}, nil
}

// GetCertificateHandler godoc
// @Summary Get a transfer certificate
// @Description Returns one certificate by content hash, including redemption status.
// @Tags offline-ledger
// @Accept json
// @Produce json
// @Param X-Request-Id header string true "Request correlation id"
// @Param hash path string true "Certificate content hash"
// @Success 200 {object} httptransport.GetCertificateResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /ledger/certificates/{hash} [get]
func (h Handler) GetCertificateHandler(ctx context.Context, hash string) (httptransport.GetCertificateResponse, error) {
	result, err := h.GetCertificate.Execute(ctx, queries.GetCertificateQuery{Hash: hash})
	if err != nil {
		return httptransport.GetCertificateResponse{}, err
	}
	return httptransport.GetCertificateResponse{Item: mapCertificate(result.Record)}, nil
}

// RedeemCertificateHandler godoc
// @Summary Redeem a transfer certificate
// @Description Settles a certificate: debits the sender, credits or pays out the recipient, advances the sequence cursor.
// @Tags offline-ledger
// @Accept json
// @Produce json
// @Param X-Request-Id header string true "Request correlation id"
// @Param request body httptransport.RedeemCertificateRequest true "Redemption payload"
// @Success 200 {object} httptransport.RedeemCertificateResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 402 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 410 {object} httptransport.ErrorResponse
// @Failure 422 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /ledger/redemptions [post]
func (h Handler) RedeemCertificateHandler(
	ctx context.Context,
	req httptransport.RedeemCertificateRequest,
) (httptransport.RedeemCertificateResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("redeem certificate request received",
		"event", "http_redeem_certificate_received",
		"module", "settlement-core/offline-ledger",
		"layer", "transport",
	)

	amount, err := parseAmount(req.Amount)
	if err != nil {
		return httptransport.RedeemCertificateResponse{}, err
	}
	issuedAt, err := time.Parse(time.RFC3339, req.IssuedAt)
	if err != nil {
		return httptransport.RedeemCertificateResponse{}, domainerrors.ErrInvalidTransferCertificate
	}
	var signature []byte
	if strings.TrimSpace(req.Signature) != "" {
		signature, err = base64.StdEncoding.DecodeString(req.Signature)
		if err != nil {
			return httptransport.RedeemCertificateResponse{}, domainerrors.ErrInvalidTransferCertificate
		}
	}

	result, err := h.RedeemCertificate.Execute(ctx, commands.RedeemCertificateCommand{
		Tx: entities.RedeemTransaction{
			Certificate: entities.TransferCertificate{
				Sender:         strings.TrimSpace(req.Sender),
				Recipient:      strings.TrimSpace(req.Recipient),
				Token:          strings.TrimSpace(req.Token),
				Amount:         amount,
				SequenceNumber: req.SequenceNumber,
				IssuedAt:       issuedAt.UTC(),
			},
			Signature: signature,
		},
	})
	if err != nil {
		return httptransport.RedeemCertificateResponse{}, err
	}
	return httptransport.RedeemCertificateResponse{
		Hash:        result.Hash,
		Destination: result.Destination,
		RedeemedAt:  result.RedeemedAt.UTC().Format(time.RFC3339),
	}, nil
}

func mapAccount(account entities.Account) httptransport.AccountDTO {
	balances := make([]httptransport.BalanceDTO, 0, len(account.Balances))
	for token := range account.Balances {
		balances = append(balances, httptransport.BalanceDTO{
			Token:  token,
			Amount: account.BalanceOf(token).String(),
		})
	}
	sort.Slice(balances, func(i, j int) bool {
		return balances[i].Token < balances[j].Token
	})
	return httptransport.AccountDTO{
		Address:              account.Address,
		Registered:           account.Registered,
		RegisteredAt:         account.RegisteredAt.UTC().Format(time.RFC3339),
		LastRedeemedSequence: account.LastRedeemedSequence,
		Balances:             balances,
	}
}

func mapCertificate(record ports.CertificateRecord) httptransport.CertificateDTO {
	item := httptransport.CertificateDTO{
		Hash:           record.Hash,
		Sender:         record.Certificate.Sender,
		Recipient:      record.Certificate.Recipient,
		Token:          record.Certificate.Token,
		Amount:         record.Certificate.Amount.String(),
		SequenceNumber: record.Certificate.SequenceNumber,
		IssuedAt:       record.Certificate.IssuedAt.UTC().Format(time.RFC3339),
		Redeemed:       record.Redeemed,
	}
	if record.RedeemedAt != nil {
		item.RedeemedAt = record.RedeemedAt.UTC().Format(time.RFC3339)
	}
	return item
}

func parseAmount(raw string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok {
		return nil, domainerrors.ErrAmountMustBePositive
	}
	return amount, nil
}
