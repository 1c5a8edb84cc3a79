package httptransport

type MintRequest struct {
	Token  string `json:"token"`
	Amount string `json:"amount"`
}

type MintResponse struct {
	Holder string `json:"holder"`
	Token  string `json:"token"`
	Amount string `json:"amount"`
}

type WalletBalanceResponse struct {
	Holder string `json:"holder"`
	Token  string `json:"token"`
	Amount string `json:"amount"`
}

type EscrowBalanceResponse struct {
	Token  string `json:"token"`
	Amount string `json:"amount"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
