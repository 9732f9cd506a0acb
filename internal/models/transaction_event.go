package models

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	TransactionProcessedEventName = "transaction_processed"

	TransactionEventNewState        = "new"
	TransactionEventProcessingState = "processing"
	TransactionEventFinishedState   = "finished"
	TransactionEventFailedState     = "failed"
)

// TransactionEvent is an outbox row: written in the same database
// transaction as the balance mutation it describes, later published to
// Kafka by the outbox daemon.
type TransactionEvent struct {
	UUID  string                `json:"uuid"`
	State string                `json:"state"`
	Name  string                `json:"name"`
	Meta  *TransactionEventMeta `json:"meta"`
}

type TransactionEventMeta struct {
	TransactionUUID      string          `json:"transaction_uuid"`
	Type                 TransactionType `json:"transaction_type"`
	Value                int64           `json:"value"`
	OriginAccountID      int64           `json:"origin_account_id,omitempty"`
	DestinationAccountID int64           `json:"destination_account_id,omitempty"`
	ProcessedAt          time.Time       `json:"processed_at"`
}

func (m *TransactionEventMeta) Scan(value interface{}) error {
	if value == nil {
		*m = TransactionEventMeta{}
		return nil
	}

	switch b := value.(type) {
	case string:
		return json.Unmarshal([]byte(b), &m)
	case []byte:
		return json.Unmarshal(b, &m)
	default:
		return fmt.Errorf("models/transaction_event: meta invalid format error, expected json")
	}
}
