package billing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGetChargeStatus(t *testing.T) {
	var gotPath string
	var gotToken string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.Header.Get("X-Platform-Access-Token")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"recurring_charge":{"id":777,"status":"Active"}}`))
	}))
	defer srv.Close()

	c := &StatusClient{Scheme: "http", HTTPClient: srv.Client()}
	domain := strings.TrimPrefix(srv.URL, "http://")

	status, err := c.GetChargeStatus(context.Background(), domain, "shpat_token", 777)
	if err != nil {
		t.Fatalf("GetChargeStatus: %v", err)
	}
	if status != StatusActive {
		t.Fatalf("status = %q, want %q", status, StatusActive)
	}
	if gotPath != "/admin/api/recurring_charges/777.json" {
		t.Fatalf("unexpected request path %q", gotPath)
	}
	if gotToken != "shpat_token" {
		t.Fatalf("expected access token header, got %q", gotToken)
	}
}

func TestGetChargeStatusProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":"charge not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := &StatusClient{Scheme: "http", HTTPClient: srv.Client()}
	domain := strings.TrimPrefix(srv.URL, "http://")

	if _, err := c.GetChargeStatus(context.Background(), domain, "shpat_token", 777); err == nil {
		t.Fatalf("expected provider error to surface")
	}
}

func TestGetChargeStatusMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := &StatusClient{Scheme: "http", HTTPClient: srv.Client()}
	domain := strings.TrimPrefix(srv.URL, "http://")

	if _, err := c.GetChargeStatus(context.Background(), domain, "shpat_token", 777); err == nil {
		t.Fatalf("expected malformed body to surface as error")
	}
}

func TestGetChargeStatusMissingStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"recurring_charge":{"id":777}}`))
	}))
	defer srv.Close()

	c := &StatusClient{Scheme: "http", HTTPClient: srv.Client()}
	domain := strings.TrimPrefix(srv.URL, "http://")

	if _, err := c.GetChargeStatus(context.Background(), domain, "shpat_token", 777); err == nil {
		t.Fatalf("expected empty status to surface as error")
	}
}

func TestGetChargeStatusInputValidation(t *testing.T) {
	c := &StatusClient{}

	if _, err := c.GetChargeStatus(context.Background(), "", "tok", 1); err == nil {
		t.Fatalf("expected error for missing domain")
	}
	if _, err := c.GetChargeStatus(context.Background(), "shop.example.com", "", 1); err == nil {
		t.Fatalf("expected error for missing token")
	}
	if _, err := c.GetChargeStatus(context.Background(), "shop.example.com", "tok", 0); err == nil {
		t.Fatalf("expected error for invalid charge id")
	}
}
