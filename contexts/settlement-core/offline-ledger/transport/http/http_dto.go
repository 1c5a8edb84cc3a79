package httptransport

type RegisterAccountRequest struct {
	Address string `json:"address"`
}

type RegisterAccountResponse struct {
	Address              string `json:"address"`
	RegisteredAt         string `json:"registered_at"`
	LastRedeemedSequence uint64 `json:"last_redeemed_sequence"`
}

type BalanceDTO struct {
	Token  string `json:"token"`
	Amount string `json:"amount"`
}

type AccountDTO struct {
	Address              string       `json:"address"`
	Registered           bool         `json:"registered"`
	RegisteredAt         string       `json:"registered_at"`
	LastRedeemedSequence uint64       `json:"last_redeemed_sequence"`
	Balances             []BalanceDTO `json:"balances"`
}

type GetAccountResponse struct {
	Item AccountDTO `json:"item"`
}

type ListAccountsResponse struct {
	Items []AccountDTO `json:"items"`
}

type FundAccountRequest struct {
	Token  string `json:"token"`
	Amount string `json:"amount"`
}

type FundAccountResponse struct {
	TransactionIndex uint64 `json:"transaction_index"`
	Sender           string `json:"sender"`
	Token            string `json:"token"`
	Amount           string `json:"amount"`
	DepositedAt      string `json:"deposited_at"`
	Replayed         bool   `json:"replayed,omitempty"`
}

type FundingRecordDTO struct {
	TransactionIndex uint64 `json:"transaction_index"`
	Sender           string `json:"sender"`
	Token            string `json:"token"`
	Amount           string `json:"amount"`
	DepositedAt      string `json:"deposited_at"`
}

type ListFundingRecordsResponse struct {
	Items []FundingRecordDTO `json:"items"`
}

type IssueCertificateRequest struct {
	Sender         string `json:"sender"`
	Recipient      string `json:"recipient"`
	Token          string `json:"token"`
	Amount         string `json:"amount"`
	SequenceNumber uint64 `json:"sequence_number"`
}

type CertificateDTO struct {
	Hash           string `json:"hash"`
	Sender         string `json:"sender"`
	Recipient      string `json:"recipient"`
	Token          string `json:"token"`
	Amount         string `json:"amount"`
	SequenceNumber uint64 `json:"sequence_number"`
	IssuedAt       string `json:"issued_at"`
	Redeemed       bool   `json:"redeemed"`
	RedeemedAt     string `json:"redeemed_at,omitempty"`
}

type IssueCertificateResponse struct {
	Item CertificateDTO `json:"item"`
}

type GetCertificateResponse struct {
	Item CertificateDTO `json:"item"`
}

type RedeemCertificateRequest struct {
	Sender         string `json:"sender"`
	Recipient      string `json:"recipient"`
	Token          string `json:"token"`
	Amount         string `json:"amount"`
	SequenceNumber uint64 `json:"sequence_number"`
	IssuedAt       string `json:"issued_at"`
	Signature      string `json:"signature,omitempty"`
}

type RedeemCertificateResponse struct {
	Hash        string `json:"hash"`
	Destination string `json:"destination"`
	RedeemedAt  string `json:"redeemed_at"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
