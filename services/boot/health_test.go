package boot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testGate(maxAttempts int) *HealthGate {
	return &HealthGate{
		Client:      &http.Client{Timeout: time.Second},
		Log:         zerolog.Nop(),
		MaxAttempts: maxAttempts,
		Delay:       time.Millisecond,
	}
}

func TestWait_ImmediateSuccess(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := testGate(5).Wait(context.Background(), "gateway", srv.URL); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("expected exactly 1 request, got %d", hits.Load())
	}
}

func TestWait_RedirectCountsAsHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	if err := testGate(1).Wait(context.Background(), "web", srv.URL); err != nil {
		t.Errorf("3xx should pass the gate: %v", err)
	}
}

func TestWait_RecoversWithinBudget(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := testGate(5).Wait(context.Background(), "gateway", srv.URL); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if hits.Load() != 3 {
		t.Errorf("expected 3 attempts (2 failures then success), got %d", hits.Load())
	}
}

func TestWait_ExhaustsExactlyMaxAttempts(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := testGate(4).Wait(context.Background(), "gateway", srv.URL)
	if err == nil {
		t.Fatal("expected exhaustion error")
	}
	if hits.Load() != 4 {
		t.Errorf("expected exactly 4 attempts, got %d", hits.Load())
	}
}

func TestWait_NetworkFailureCountsAsAttempt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	url := srv.URL
	srv.Close() // nothing listens anymore

	err := testGate(3).Wait(context.Background(), "gateway", url)
	if err == nil {
		t.Fatal("expected exhaustion error against a dead endpoint")
	}
}

func TestWait_CancelledContextAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gate := testGate(100)
	gate.Delay = time.Minute

	if err := gate.Wait(ctx, "gateway", srv.URL); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
