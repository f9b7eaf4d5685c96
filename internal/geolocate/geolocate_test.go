package geolocate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLocate_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","lat":-6.2146,"lon":106.8451}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	lat, lon, err := c.Locate(context.Background())
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if lat != -6.2146 || lon != 106.8451 {
		t.Errorf("Locate = %v,%v, want -6.2146,106.8451", lat, lon)
	}
}

func TestLocate_ServiceFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"fail","message":"private range"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, _, err := c.Locate(context.Background()); err == nil {
		t.Fatal("expected error for failed lookup")
	}
}

func TestLocate_HTTPErrorIsTerminal(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, _, err := c.Locate(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("server called %d times, want 1 (5xx is not retried)", calls)
	}
}

func TestLocate_BudgetBoundsStalledLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	c.timeout = 100 * time.Millisecond

	start := time.Now()
	_, _, err := c.Locate(context.Background())
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected error when the service never responds")
	}
	if elapsed > time.Second {
		t.Errorf("Locate returned after %v, want within the lookup budget", elapsed)
	}
}

func TestLocate_BudgetStopsRetries(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	c.timeout = 150 * time.Millisecond

	start := time.Now()
	_, _, err := c.Locate(context.Background())
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected error when every attempt is rate limited")
	}
	if elapsed > time.Second {
		t.Errorf("Locate retried for %v, want retries to stop at the budget", elapsed)
	}
	if calls == 0 {
		t.Error("expected at least one attempt")
	}
}

func TestLocate_RetriesRateLimit(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"status":"success","lat":1,"lon":2}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	lat, lon, err := c.Locate(context.Background())
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if lat != 1 || lon != 2 {
		t.Errorf("Locate = %v,%v, want 1,2", lat, lon)
	}
	if calls < 2 {
		t.Errorf("server called %d times, want a retry after 429", calls)
	}
}
