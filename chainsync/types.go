package chainsync

import "encoding/json"

// Event kinds delivered by the ledger node. Each kind has its own topic and
// subscription; delivery is at-least-once and ordered per kind, with no
// cross-kind ordering guarantee.
const (
	EventKindRecordCreated = "record-created"
	EventKindStatusChanged = "status-changed"
)

// RecordCreatedEvent is emitted when a creation write finalizes. TxHash is the
// correlation key: the ledger-assigned id only becomes known here.
type RecordCreatedEvent struct {
	LedgerId    int64  `json:"id"`
	StudentId   string `json:"student_id"`
	EvidenceRef string `json:"evidence_ref"`
	CreatedAt   int64  `json:"created_at"`
	TxHash      string `json:"tx_hash"`
}

// StatusChangedEvent is emitted when a status-update write finalizes.
type StatusChangedEvent struct {
	LedgerId   int64  `json:"id"`
	StatusCode int    `json:"status_code"`
	UpdatedAt  int64  `json:"updated_at"`
	TxHash     string `json:"tx_hash"`
}

type PubSubPushEnvelope struct {
	Message struct {
		Data       []byte            `json:"data"`
		ID         string            `json:"messageId"`
		Attributes map[string]string `json:"attributes"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

func DecodeRecordCreated(data []byte) (RecordCreatedEvent, error) {
	var ev RecordCreatedEvent
	err := json.Unmarshal(data, &ev)
	return ev, err
}

func DecodeStatusChanged(data []byte) (StatusChangedEvent, error) {
	var ev StatusChangedEvent
	err := json.Unmarshal(data, &ev)
	return ev, err
}
