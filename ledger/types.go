package ledger

// SubmissionHandle is the transaction identifier returned synchronously when a
// write is accepted into the ledger's pending pool. It is the only value both
// sides agree on before finalization, so it keys all local correlation state.
type SubmissionHandle string

func (h SubmissionHandle) String() string { return string(h) }

// Record is a grievance as the ledger knows it. ID is assigned only at
// finalization; timestamps are unix seconds from the chain.
type Record struct {
	ID            int64  `json:"id"`
	StudentId     string `json:"student_id"`
	Title         string `json:"title"`
	EvidenceRef   string `json:"evidence_ref"`
	StatusCode    int    `json:"status_code"`
	CreatedAt     int64  `json:"created_at"`
	LastUpdatedAt int64  `json:"last_updated_at"`
}

type submitRequest struct {
	StudentId   string `json:"student_id,omitempty"`
	Title       string `json:"title,omitempty"`
	EvidenceRef string `json:"evidence_ref,omitempty"`
	LedgerId    int64  `json:"ledger_id,omitempty"`
	StatusCode  *int   `json:"status_code,omitempty"`
}

type submitResponse struct {
	TxHash string `json:"tx_hash"`
}

type transactionStatusResponse struct {
	TxHash    string `json:"tx_hash"`
	Finalized bool   `json:"finalized"`
}
