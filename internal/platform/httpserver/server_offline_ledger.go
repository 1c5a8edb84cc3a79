package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	ledgererrors "meshpay/contexts/settlement-core/offline-ledger/domain/errors"
	ledgerhttp "meshpay/contexts/settlement-core/offline-ledger/transport/http"
)

func (s *Server) handleRegisterAccount(w http.ResponseWriter, r *http.Request) {
	var req ledgerhttp.RegisterAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.ledger.Handler.RegisterAccountHandler(r.Context(), req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.ListAccountsHandler(r.Context())
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	resp, err := s.ledger.Handler.GetAccountHandler(r.Context(), address)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFundAccount(w http.ResponseWriter, r *http.Request) {
	var req ledgerhttp.FundAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.ledger.Handler.FundAccountHandler(
		r.Context(),
		r.PathValue("address"),
		req,
		r.Header.Get("Idempotency-Key"),
	)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListFundingRecords(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitRaw := r.URL.Query().Get("limit"); limitRaw != "" {
		parsed, err := strconv.Atoi(limitRaw)
		if err != nil {
			writeLedgerError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		limit = parsed
	}

	resp, err := s.ledger.Handler.ListFundingRecordsHandler(r.Context(), r.PathValue("address"), limit)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleIssueCertificate(w http.ResponseWriter, r *http.Request) {
	var req ledgerhttp.IssueCertificateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.ledger.Handler.IssueCertificateHandler(r.Context(), req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetCertificate(w http.ResponseWriter, r *http.Request) {
	hash := strings.TrimSpace(r.PathValue("hash"))
	resp, err := s.ledger.Handler.GetCertificateHandler(r.Context(), hash)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRedeemCertificate(w http.ResponseWriter, r *http.Request) {
	var req ledgerhttp.RedeemCertificateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.ledger.Handler.RedeemCertificateHandler(r.Context(), req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeLedgerError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, ledgerhttp.ErrorResponse{Code: code, Message: message})
}

func writeLedgerDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledgererrors.ErrInvalidAddress),
		errors.Is(err, ledgererrors.ErrInvalidToken):
		writeLedgerError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, ledgererrors.ErrAmountMustBePositive),
		errors.Is(err, ledgererrors.ErrInvalidTransferCertificate):
		writeLedgerError(w, http.StatusUnprocessableEntity, "invalid_transfer", err.Error())
	case errors.Is(err, ledgererrors.ErrAccountNotRegistered),
		errors.Is(err, ledgererrors.ErrAccountNotFound),
		errors.Is(err, ledgererrors.ErrCertificateNotFound):
		writeLedgerError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ledgererrors.ErrAccountAlreadyRegistered):
		writeLedgerError(w, http.StatusConflict, "account_already_registered", err.Error())
	case errors.Is(err, ledgererrors.ErrInvalidSequenceNumber):
		writeLedgerError(w, http.StatusConflict, "stale_sequence", err.Error())
	case errors.Is(err, ledgererrors.ErrCertificateAlreadyRedeemed):
		writeLedgerError(w, http.StatusConflict, "already_redeemed", err.Error())
	case errors.Is(err, ledgererrors.ErrCertificateAlreadyIssued):
		writeLedgerError(w, http.StatusConflict, "already_issued", err.Error())
	case errors.Is(err, ledgererrors.ErrIdempotencyKeyConflict):
		writeLedgerError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	case errors.Is(err, ledgererrors.ErrCertificateExpired):
		writeLedgerError(w, http.StatusGone, "certificate_expired", err.Error())
	case errors.Is(err, ledgererrors.ErrInsufficientBalance):
		writeLedgerError(w, http.StatusPaymentRequired, "insufficient_balance", err.Error())
	case errors.Is(err, ledgererrors.ErrCustodyTransferFailed):
		writeLedgerError(w, http.StatusFailedDependency, "custody_unavailable", err.Error())
	default:
		writeLedgerError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
