package currency

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAPIClientFetchRates(t *testing.T) {
	t.Run("success envelope", func(t *testing.T) {
		var gotPath string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			w.Write([]byte(`{"result":"success","conversion_rates":{"USD":1.085,"GBP":0.8521}}`))
		}))
		defer srv.Close()

		client := NewAPIClient("test-key", srv.URL, srv.Client())
		rates, err := client.FetchRates(context.Background(), "EUR")
		if err != nil {
			t.Fatal(err)
		}
		if gotPath != "/test-key/latest/EUR" {
			t.Fatalf("unexpected request path %s", gotPath)
		}
		if rates["USD"].StringFixed(3) != "1.085" {
			t.Fatalf("expected USD 1.085, got %s", rates["USD"])
		}
		if rates["GBP"].StringFixed(4) != "0.8521" {
			t.Fatalf("expected GBP 0.8521, got %s", rates["GBP"])
		}
	})

	t.Run("api-level error result", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"result":"error","error-type":"invalid-key"}`))
		}))
		defer srv.Close()

		client := NewAPIClient("bad-key", srv.URL, srv.Client())
		if _, err := client.FetchRates(context.Background(), "EUR"); err == nil {
			t.Fatal("expected error for non-success result")
		}
	})

	t.Run("http error status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		client := NewAPIClient("key", srv.URL, srv.Client())
		if _, err := client.FetchRates(context.Background(), "EUR"); err == nil {
			t.Fatal("expected error for HTTP 403")
		}
	})

	t.Run("malformed payload", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"result":`))
		}))
		defer srv.Close()

		client := NewAPIClient("key", srv.URL, srv.Client())
		if _, err := client.FetchRates(context.Background(), "EUR"); err == nil {
			t.Fatal("expected error for malformed payload")
		}
	})
}
