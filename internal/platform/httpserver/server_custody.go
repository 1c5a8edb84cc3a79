package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	custodyerrors "meshpay/contexts/settlement-core/custody-gateway/domain/errors"
	custodyhttp "meshpay/contexts/settlement-core/custody-gateway/transport/http"
)

func (s *Server) handleCustodyMint(w http.ResponseWriter, r *http.Request) {
	var req custodyhttp.MintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCustodyError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.custody.Handler.MintHandler(r.Context(), r.PathValue("address"), req)
	if err != nil {
		writeCustodyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCustodyWalletBalance(w http.ResponseWriter, r *http.Request) {
	resp, err := s.custody.Handler.GetWalletBalanceHandler(
		r.Context(),
		r.PathValue("address"),
		r.PathValue("token"),
	)
	if err != nil {
		writeCustodyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCustodyEscrowBalance(w http.ResponseWriter, r *http.Request) {
	resp, err := s.custody.Handler.GetEscrowBalanceHandler(r.Context(), r.PathValue("token"))
	if err != nil {
		writeCustodyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeCustodyError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, custodyhttp.ErrorResponse{Code: code, Message: message})
}

func writeCustodyDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, custodyerrors.ErrInvalidAddress),
		errors.Is(err, custodyerrors.ErrInvalidToken):
		writeCustodyError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, custodyerrors.ErrAmountMustBePositive):
		writeCustodyError(w, http.StatusUnprocessableEntity, "invalid_amount", err.Error())
	case errors.Is(err, custodyerrors.ErrInsufficientWalletFunds):
		writeCustodyError(w, http.StatusPaymentRequired, "insufficient_wallet_funds", err.Error())
	case errors.Is(err, custodyerrors.ErrInsufficientEscrowFunds):
		writeCustodyError(w, http.StatusConflict, "insufficient_escrow_funds", err.Error())
	default:
		writeCustodyError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
