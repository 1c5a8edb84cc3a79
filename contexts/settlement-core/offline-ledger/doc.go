// Package offlineledger contains the MeshPay settlement ledger.
//
// The ledger settles transfer certificates prepared offline: it enforces
// per-sender sequence ordering, replay protection by content hash, and an
// expiry window, while custody movement is delegated to the custody gateway.
// Domain/application logic stays decoupled from runtime concerns through
// ports and adapter composition.
package offlineledger
