// Package custodygateway holds external wallet balances and the ledger escrow.
//
// Funding moves wallet value into escrow before the ledger credits the
// sender; redemption to an unregistered recipient pays out of escrow into
// their wallet. Each movement is atomic: it fully happens or custody is
// left untouched.
package custodygateway
