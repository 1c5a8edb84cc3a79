package unit

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func ledgerOutboxEnvelope(t *testing.T, f ledgerFixture, eventType string) map[string]any {
	t.Helper()
	outbox, err := f.ledger.Store.ListPendingOutbox(context.Background(), 50)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	for _, msg := range outbox {
		if msg.EventType != eventType {
			continue
		}
		var envelope map[string]any
		if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
			t.Fatalf("decode outbox envelope: %v", err)
		}
		return envelope
	}
	t.Fatalf("no outbox event of type %s", eventType)
	return nil
}

func assertLedgerEnvelopeShape(t *testing.T, envelope map[string]any, partitionKeyPath string) {
	t.Helper()
	if sourceService, _ := envelope["source_service"].(string); sourceService != "offline-ledger" {
		t.Fatalf("unexpected source_service: %s", sourceService)
	}
	if traceID, _ := envelope["trace_id"].(string); strings.TrimSpace(traceID) == "" {
		t.Fatalf("envelope missing trace_id")
	}
	if eventID, _ := envelope["event_id"].(string); strings.TrimSpace(eventID) == "" {
		t.Fatalf("envelope missing event_id")
	}
	if version, _ := envelope["schema_version"].(float64); version != 1 {
		t.Fatalf("unexpected schema_version: %v", envelope["schema_version"])
	}
	if path, _ := envelope["partition_key_path"].(string); path != partitionKeyPath {
		t.Fatalf("unexpected partition_key_path: %s", path)
	}
	if key, _ := envelope["partition_key"].(string); strings.TrimSpace(key) == "" {
		t.Fatalf("envelope missing partition_key")
	}
}

func TestOfflineLedgerAccountRegisteredEventContract(t *testing.T) {
	f := newLedgerFixture(t)
	f.register(t, "alice")

	envelope := ledgerOutboxEnvelope(t, f, "ledger.account_registered")
	assertLedgerEnvelopeShape(t, envelope, "address")

	data, _ := envelope["data"].(map[string]any)
	if address, _ := data["address"].(string); address != "alice" {
		t.Fatalf("unexpected address: %v", data["address"])
	}
	if registeredAt, _ := data["registered_at"].(string); strings.TrimSpace(registeredAt) == "" {
		t.Fatalf("account_registered missing registered_at")
	}
}

func TestOfflineLedgerDepositedEventContract(t *testing.T) {
	f := newLedgerFixture(t)
	f.register(t, "alice")
	f.mintAndFund(t, "alice", "tkn", "75")

	envelope := ledgerOutboxEnvelope(t, f, "ledger.tokens_deposited")
	assertLedgerEnvelopeShape(t, envelope, "sender")

	data, _ := envelope["data"].(map[string]any)
	if amount, _ := data["amount"].(string); amount != "75" {
		t.Fatalf("expected string amount 75, got %v", data["amount"])
	}
	if index, _ := data["transaction_index"].(float64); index != 1 {
		t.Fatalf("expected transaction_index 1, got %v", data["transaction_index"])
	}
}

func TestOfflineLedgerCertificateEventContracts(t *testing.T) {
	f := newLedgerFixture(t)
	f.register(t, "alice")
	f.register(t, "bob")
	f.mintAndFund(t, "alice", "tkn", "100")

	item := f.issue(t, "alice", "bob", "tkn", "30", 1)
	if _, err := f.redeem(t, item); err != nil {
		t.Fatalf("redeem failed: %v", err)
	}

	issued := ledgerOutboxEnvelope(t, f, "ledger.certificate_issued")
	assertLedgerEnvelopeShape(t, issued, "sender")
	issuedData, _ := issued["data"].(map[string]any)
	if hash, _ := issuedData["certificate_hash"].(string); hash != item.Hash {
		t.Fatalf("issued event hash mismatch: %v", issuedData["certificate_hash"])
	}
	if seq, _ := issuedData["sequence_number"].(float64); seq != 1 {
		t.Fatalf("unexpected sequence_number: %v", issuedData["sequence_number"])
	}

	redeemed := ledgerOutboxEnvelope(t, f, "ledger.certificate_redeemed")
	assertLedgerEnvelopeShape(t, redeemed, "sender")
	redeemedData, _ := redeemed["data"].(map[string]any)
	if destination, _ := redeemedData["destination"].(string); destination != "internal" {
		t.Fatalf("unexpected destination: %v", redeemedData["destination"])
	}
	if amount, _ := redeemedData["amount"].(string); amount != "30" {
		t.Fatalf("expected string amount 30, got %v", redeemedData["amount"])
	}
}
