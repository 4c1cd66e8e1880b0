package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/draftradar/tipoff/internal/config"
	"github.com/draftradar/tipoff/internal/platform/logging"
)

func TestInitBetterStackLogger_ShipsErrorRecords(t *testing.T) {
	t.Parallel()

	var (
		mu       sync.Mutex
		requests int
		auth     string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests++
		auth = r.Header.Get("Authorization")
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	cfg := config.Config{
		BetterStackEnabled:  true,
		BetterStackEndpoint: server.URL,
		BetterStackToken:    "ingest-token",
		BetterStackTimeout:  2 * time.Second,
		BetterStackMinLevel: logging.LevelError,
		ServiceName:         "tipoff-api",
		AppEnv:              config.EnvDev,
	}

	logger, shutdown, err := InitBetterStackLogger(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("init betterstack logger: %v", err)
	}

	logger.ErrorContext(context.Background(), "snapshot write failed", "scope_key", "league:euroleague:2026-03-14")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown logger: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if requests == 0 {
		t.Fatal("expected the ingest endpoint to receive the error record")
	}
	if auth != "Bearer ingest-token" {
		t.Fatalf("authorization = %q, want Bearer ingest-token", auth)
	}
}

func TestInitBetterStackLogger_HoldsRecordsBelowFloor(t *testing.T) {
	t.Parallel()

	var (
		mu       sync.Mutex
		requests int
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		requests++
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	cfg := config.Config{
		BetterStackEnabled:  true,
		BetterStackEndpoint: server.URL,
		BetterStackTimeout:  2 * time.Second,
		BetterStackMinLevel: logging.LevelError,
		ServiceName:         "tipoff-api",
		AppEnv:              config.EnvDev,
	}

	logger, shutdown, err := InitBetterStackLogger(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("init betterstack logger: %v", err)
	}

	logger.InfoContext(context.Background(), "refresh run finished", "fixtures", 42)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown logger: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if requests != 0 {
		t.Fatalf("info record must stay below the shipping floor, got %d requests", requests)
	}
}

func TestNormalizeBetterStackEndpoint(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"   ", ""},
		{"in.logs.betterstack.com", "https://in.logs.betterstack.com"},
		{"https://in.logs.betterstack.com", "https://in.logs.betterstack.com"},
		{"http://localhost:8080", "http://localhost:8080"},
	}
	for _, tt := range tests {
		if got := normalizeBetterStackEndpoint(tt.in); got != tt.want {
			t.Fatalf("normalizeBetterStackEndpoint(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBetterStackShipper_WriteAfterCloseIsSafe(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	s := newBetterStackShipper(server.URL, "", time.Second)
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("close shipper: %v", err)
	}
	if _, err := s.Write([]byte(`{"msg":"late"}`)); err != nil {
		t.Fatalf("write after close: %v", err)
	}
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
