package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/iho/walletledger/internal/infrastructure/auth"
)

func runCLI(t *testing.T, server *httptest.Server, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	if server != nil {
		args = append([]string{"--url", server.URL}, args...)
	}
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("expected short unchanged, got %q", got)
	}

	if got := truncate("longerstring", 6); got != "lon..." {
		t.Fatalf("expected lon..., got %q", got)
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	printJSON(&buf, struct {
		A int `json:"a"`
	}{A: 1})

	expected := "{\n  \"a\": 1\n}\n"
	if buf.String() != expected {
		t.Fatalf("unexpected json output:\n%s", buf.String())
	}
}

func TestTransferCmd_SendsIdempotencyKey(t *testing.T) {
	var gotKey, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Idempotency-Key")
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(r.Body)
		gotBody = buf.String()
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"movement":{"id":"mv-1","amount":"30","status":"completed"},"duplicate":true}`))
	}))
	defer server.Close()

	out, err := runCLI(t, server, "transfer", "alice", "bob", "30", "--idempotency-key", "k-1")
	if err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if gotKey != "k-1" {
		t.Fatalf("expected idempotency key header, got %q", gotKey)
	}
	if !strings.Contains(gotBody, `"amount":"30"`) {
		t.Fatalf("unexpected request body %s", gotBody)
	}
	if !strings.Contains(out, "already applied") {
		t.Fatalf("expected replay notice, got %s", out)
	}
}

func TestTransferCmd_SurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"failed to transfer","message":"storage unavailable","retryable":true}`))
	}))
	defer server.Close()

	_, err := runCLI(t, server, "transfer", "alice", "bob", "30", "--idempotency-key", "k-1")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "503") || !strings.Contains(err.Error(), "[retryable]") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestLedgerConsistencyCmd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/ledger/consistency" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"status":"inconsistent","consistent":false,"total_balance":"99","total_opening":"100"}`))
	}))
	defer server.Close()

	out, err := runCLI(t, server, "ledger", "consistency")
	if err == nil {
		t.Fatal("expected inconsistent ledger to fail the command")
	}
	if !strings.Contains(out, "Total balance: 99") {
		t.Fatalf("expected totals in output, got %s", out)
	}
}

func TestHistoryCmd_BuildsQuery(t *testing.T) {
	var query string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"movements":[{"id":"mv-1","seq":3,"source_account_id":"a","dest_account_id":"b","amount":"5","status":"completed"}],"next_cursor":3}`))
	}))
	defer server.Close()

	out, err := runCLI(t, server, "history", "--account", "a", "--order", "asc", "--limit", "1")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if query != "account_id=a&limit=1&order=asc" {
		t.Fatalf("unexpected query %q", query)
	}
	if !strings.Contains(out, "next cursor: 3") {
		t.Fatalf("expected cursor in output, got %s", out)
	}
}

func TestTokenCmd(t *testing.T) {
	out, err := runCLI(t, nil, "token", "alice", "--secret", "s3cret", "--role", "admin")
	if err != nil {
		t.Fatalf("token failed: %v", err)
	}

	caller, err := auth.NewJWTManager("s3cret", time.Minute).VerifyCaller(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if caller.Subject != "alice" || caller.Role != "admin" {
		t.Fatalf("unexpected caller %+v", caller)
	}
}
