package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/grievancechain/grievance_backend/config"
	"github.com/grievancechain/grievance_backend/utils"
)

// Client is a typed wrapper over the ledger node's HTTP API. Submits return as
// soon as the write enters the pending pool; finalization is observed through
// the event feed (chainsync) or WaitFinal.
type Client struct {
	baseURL   string
	signerKey string
	http      *http.Client
}

var (
	client     *Client
	clientOnce sync.Once
)

// GetClient returns the shared ledger client.
func GetClient() *Client {
	clientOnce.Do(func() {
		client = NewClient()
	})
	return client
}

func NewClient() *Client {
	baseURL := strings.TrimSpace(os.Getenv("LEDGER_RPC_URL"))
	if baseURL == "" {
		baseURL = "http://localhost:8545"
	}
	timeout := time.Duration(config.IntFromEnv("LEDGER_SUBMIT_TIMEOUT_SECONDS", 30)) * time.Second

	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		signerKey: strings.TrimSpace(os.Getenv("LEDGER_SIGNER_KEY")),
		http:      &http.Client{Timeout: timeout},
	}
}

// SubmitCreate submits a new grievance and returns its handle once the ledger
// accepts the write into its pending pool, NOT once finalized. On
// ErrLedgerUnavailable no state changed on either side.
func (c *Client) SubmitCreate(ctx context.Context, studentId, title, evidenceRef string) (SubmissionHandle, error) {
	req := submitRequest{
		StudentId:   studentId,
		Title:       title,
		EvidenceRef: evidenceRef,
	}
	var resp submitResponse
	if err := c.post(ctx, "/v1/grievances", req, &resp); err != nil {
		return "", err
	}
	if resp.TxHash == "" {
		return "", fmt.Errorf("%w: empty transaction hash in submit response", utils.ErrLedgerRejected)
	}
	return SubmissionHandle(resp.TxHash), nil
}

// SubmitStatusUpdate submits a status change for a finalized record.
func (c *Client) SubmitStatusUpdate(ctx context.Context, ledgerId int64, statusCode int) (SubmissionHandle, error) {
	req := submitRequest{
		LedgerId:   ledgerId,
		StatusCode: &statusCode,
	}
	var resp submitResponse
	if err := c.post(ctx, fmt.Sprintf("/v1/grievances/%d/status", ledgerId), req, &resp); err != nil {
		return "", err
	}
	if resp.TxHash == "" {
		return "", fmt.Errorf("%w: empty transaction hash in submit response", utils.ErrLedgerRejected)
	}
	return SubmissionHandle(resp.TxHash), nil
}

// FetchRecord reads the current finalized state directly from the ledger,
// bypassing the local cache. Returns utils.ErrorRecordNotFound when the ledger
// identifier does not exist.
func (c *Client) FetchRecord(ctx context.Context, ledgerId int64) (*Record, error) {
	var rec Record
	if err := c.get(ctx, fmt.Sprintf("/v1/grievances/%d", ledgerId), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// WaitFinal blocks until the ledger reports the submission finalized. Used by
// the status-update path, which gives callers a stronger guarantee than the
// optimistic creation path. Respects the context deadline; expiry surfaces
// ErrLedgerUnavailable without retrying.
func (c *Client) WaitFinal(ctx context.Context, handle SubmissionHandle) error {
	interval := time.Duration(config.IntFromEnv("LEDGER_FINALITY_POLL_MS", 500)) * time.Millisecond
	for {
		var status transactionStatusResponse
		err := c.get(ctx, "/v1/transactions/"+handle.String(), &status)
		if err != nil {
			return err
		}
		if status.Finalized {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: finality wait expired for %s", utils.ErrLedgerUnavailable, handle)
		case <-time.After(interval):
		}
	}
}

func (c *Client) post(ctx context.Context, path string, payload any, dest any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, dest)
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, dest)
}

func (c *Client) do(req *http.Request, dest any) error {
	if c.signerKey != "" {
		req.Header.Set("X-Signer-Key", c.signerKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Transport failures and client timeouts: the ledger may not have seen
		// the request at all; safe for the caller to retry.
		return fmt.Errorf("%w: %v", utils.ErrLedgerUnavailable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if err := mapStatusError(resp.StatusCode, body); err != nil {
		return err
	}

	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("%w: malformed ledger response: %v", utils.ErrLedgerUnavailable, err)
	}
	return nil
}

func mapStatusError(statusCode int, body []byte) error {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == http.StatusNotFound:
		return utils.ErrorRecordNotFound
	case statusCode >= 400 && statusCode < 500:
		// Caller-side validation failure (e.g. unauthorized signer); permanent
		// for this request.
		return fmt.Errorf("%w: ledger error %d: %s", utils.ErrLedgerRejected, statusCode, strings.TrimSpace(string(body)))
	default:
		return fmt.Errorf("%w: ledger error %d: %s", utils.ErrLedgerUnavailable, statusCode, strings.TrimSpace(string(body)))
	}
}

// IsUnavailable reports whether err means the ledger could not be reached and
// no state changed.
func IsUnavailable(err error) bool {
	return errors.Is(err, utils.ErrLedgerUnavailable)
}
