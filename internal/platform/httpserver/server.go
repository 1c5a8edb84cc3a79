package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	custodygateway "meshpay/contexts/settlement-core/custody-gateway"
	offlineledger "meshpay/contexts/settlement-core/offline-ledger"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "meshpay/internal/platform/httpserver/docs"
)

type Server struct {
	mux     *http.ServeMux
	logger  *slog.Logger
	addr    string
	ledger  offlineledger.Module
	custody custodygateway.Module
}

func New(
	ledger offlineledger.Module,
	custody custodygateway.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:     http.NewServeMux(),
		logger:  logger,
		addr:    addr,
		ledger:  ledger,
		custody: custody,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /v1/ledger/accounts", s.handleRegisterAccount)
	s.mux.HandleFunc("GET /v1/ledger/accounts", s.handleListAccounts)
	s.mux.HandleFunc("GET /v1/ledger/accounts/{address}", s.handleGetAccount)
	s.mux.HandleFunc("POST /v1/ledger/accounts/{address}/fund", s.handleFundAccount)
	s.mux.HandleFunc("GET /v1/ledger/accounts/{address}/funding-records", s.handleListFundingRecords)
	s.mux.HandleFunc("POST /v1/ledger/certificates", s.handleIssueCertificate)
	s.mux.HandleFunc("GET /v1/ledger/certificates/{hash}", s.handleGetCertificate)
	s.mux.HandleFunc("POST /v1/ledger/redemptions", s.handleRedeemCertificate)

	s.mux.HandleFunc("POST /v1/custody/wallets/{address}/mint", s.handleCustodyMint)
	s.mux.HandleFunc("GET /v1/custody/wallets/{address}/balances/{token}", s.handleCustodyWalletBalance)
	s.mux.HandleFunc("GET /v1/custody/escrow/{token}", s.handleCustodyEscrowBalance)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
