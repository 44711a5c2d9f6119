package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/grievancechain/grievance_backend/utils"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	t.Setenv("LEDGER_RPC_URL", srv.URL)
	t.Setenv("LEDGER_SIGNER_KEY", "test-signer")
	return NewClient()
}

func TestSubmitCreateReturnsHandle(t *testing.T) {
	var gotSigner string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/grievances" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotSigner = r.Header.Get("X-Signer-Key")

		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.StudentId != "ST-1001" || req.Title != "Hostel water leak problem" {
			t.Errorf("unexpected request body: %+v", req)
		}

		json.NewEncoder(w).Encode(submitResponse{TxHash: "0xfeed"})
	}))

	handle, err := c.SubmitCreate(context.Background(), "ST-1001", "Hostel water leak problem", "deadbeef")
	if err != nil {
		t.Fatalf("SubmitCreate: %v", err)
	}
	if handle != "0xfeed" {
		t.Fatalf("handle = %q, want 0xfeed", handle)
	}
	if gotSigner != "test-signer" {
		t.Fatalf("signer header = %q, want test-signer", gotSigner)
	}
}

func TestSubmitCreateEmptyHandleIsRejected(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(submitResponse{})
	}))

	_, err := c.SubmitCreate(context.Background(), "ST-1001", "title", "ref")
	if !errors.Is(err, utils.ErrLedgerRejected) {
		t.Fatalf("err = %v, want ErrLedgerRejected", err)
	}
}

func TestSubmitMapsServerErrorToUnavailable(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "node is syncing", http.StatusServiceUnavailable)
	}))

	_, err := c.SubmitCreate(context.Background(), "ST-1001", "title", "ref")
	if !errors.Is(err, utils.ErrLedgerUnavailable) {
		t.Fatalf("err = %v, want ErrLedgerUnavailable", err)
	}
	if !IsUnavailable(err) {
		t.Fatal("IsUnavailable should report true")
	}
}

func TestSubmitMapsClientErrorToRejected(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized signer", http.StatusForbidden)
	}))

	_, err := c.SubmitStatusUpdate(context.Background(), 42, 1)
	if !errors.Is(err, utils.ErrLedgerRejected) {
		t.Fatalf("err = %v, want ErrLedgerRejected", err)
	}
	if IsUnavailable(err) {
		t.Fatal("a 4xx is permanent, not unavailable")
	}
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	t.Setenv("LEDGER_RPC_URL", "http://127.0.0.1:1")
	t.Setenv("LEDGER_SIGNER_KEY", "")
	c := NewClient()

	_, err := c.SubmitCreate(context.Background(), "ST-1001", "title", "ref")
	if !errors.Is(err, utils.ErrLedgerUnavailable) {
		t.Fatalf("err = %v, want ErrLedgerUnavailable", err)
	}
}

func TestFetchRecord(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/grievances/42":
			json.NewEncoder(w).Encode(Record{
				ID:            42,
				StudentId:     "ST-1001",
				Title:         "Hostel water leak problem",
				StatusCode:    2,
				CreatedAt:     1756400000,
				LastUpdatedAt: 1756400100,
			})
		default:
			http.NotFound(w, r)
		}
	}))

	rec, err := c.FetchRecord(context.Background(), 42)
	if err != nil {
		t.Fatalf("FetchRecord: %v", err)
	}
	if rec.ID != 42 || rec.StatusCode != 2 {
		t.Fatalf("unexpected record: %+v", rec)
	}

	_, err = c.FetchRecord(context.Background(), 77)
	if !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("missing record err = %v, want ErrorRecordNotFound", err)
	}
}

func TestWaitFinalPollsUntilFinalized(t *testing.T) {
	t.Setenv("LEDGER_FINALITY_POLL_MS", "10")
	var polls atomic.Int64
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/transactions/0xfeed" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		n := polls.Add(1)
		json.NewEncoder(w).Encode(transactionStatusResponse{
			TxHash:    "0xfeed",
			Finalized: n >= 3,
		})
	}))

	if err := c.WaitFinal(context.Background(), "0xfeed"); err != nil {
		t.Fatalf("WaitFinal: %v", err)
	}
	if polls.Load() < 3 {
		t.Fatalf("polls = %d, want >= 3", polls.Load())
	}
}

func TestWaitFinalTimesOutAsUnavailable(t *testing.T) {
	t.Setenv("LEDGER_FINALITY_POLL_MS", "10")
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(transactionStatusResponse{TxHash: "0xfeed", Finalized: false})
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := c.WaitFinal(ctx, "0xfeed")
	if !errors.Is(err, utils.ErrLedgerUnavailable) {
		t.Fatalf("err = %v, want ErrLedgerUnavailable", err)
	}
}
