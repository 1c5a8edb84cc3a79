package postgresadapter

import (
	"encoding/json"
	"time"

	"meshpay/contexts/settlement-core/offline-ledger/ports"
)

const sourceService = "offline-ledger"

func buildRegisteredEnvelope(event ports.AccountRegisteredEvent) (ports.EventEnvelope, error) {
	data, err := json.Marshal(map[string]any{
		"address":       event.Address,
		"registered_at": event.OccurredAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          event.EventID,
		EventType:        event.EventType,
		OccurredAt:       event.OccurredAt.UTC(),
		SourceService:    sourceService,
		TraceID:          event.EventID,
		SchemaVersion:    1,
		PartitionKeyPath: "address",
		PartitionKey:     event.Address,
		Data:             data,
	}, nil
}

func buildDepositedEnvelope(event ports.TokensDepositedEvent) (ports.EventEnvelope, error) {
	data, err := json.Marshal(map[string]any{
		"sender":            event.Sender,
		"token":             event.Token,
		"amount":            event.Amount.String(),
		"transaction_index": event.TransactionIndex,
	})
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          event.EventID,
		EventType:        event.EventType,
		OccurredAt:       event.OccurredAt.UTC(),
		SourceService:    sourceService,
		TraceID:          event.EventID,
		SchemaVersion:    1,
		PartitionKeyPath: "sender",
		PartitionKey:     event.Sender,
		Data:             data,
	}, nil
}

func buildIssuedEnvelope(event ports.CertificateIssuedEvent) (ports.EventEnvelope, error) {
	certificate := event.Certificate
	data, err := json.Marshal(map[string]any{
		"sender":           certificate.Sender,
		"recipient":        certificate.Recipient,
		"token":            certificate.Token,
		"amount":           certificate.Amount.String(),
		"sequence_number":  certificate.SequenceNumber,
		"certificate_hash": event.Hash,
		"issued_at":        certificate.IssuedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          event.EventID,
		EventType:        event.EventType,
		OccurredAt:       event.OccurredAt.UTC(),
		SourceService:    sourceService,
		TraceID:          event.EventID,
		SchemaVersion:    1,
		PartitionKeyPath: "sender",
		PartitionKey:     certificate.Sender,
		Data:             data,
	}, nil
}

func buildRedeemedEnvelope(event ports.CertificateRedeemedEvent) (ports.EventEnvelope, error) {
	certificate := event.Certificate
	data, err := json.Marshal(map[string]any{
		"sender":           certificate.Sender,
		"recipient":        certificate.Recipient,
		"token":            certificate.Token,
		"amount":           certificate.Amount.String(),
		"sequence_number":  certificate.SequenceNumber,
		"certificate_hash": event.Hash,
		"destination":      event.Destination,
	})
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          event.EventID,
		EventType:        event.EventType,
		OccurredAt:       event.OccurredAt.UTC(),
		SourceService:    sourceService,
		TraceID:          event.EventID,
		SchemaVersion:    1,
		PartitionKeyPath: "sender",
		PartitionKey:     certificate.Sender,
		Data:             data,
	}, nil
}
