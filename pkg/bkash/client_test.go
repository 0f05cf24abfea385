package bkash

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/spacestar-shop/backend/pkg/config"
	pkgerrors "github.com/spacestar-shop/backend/pkg/errors"
)

func testConfig(baseURL string) config.BkashConfig {
	return config.BkashConfig{
		AppKey:      "app-key",
		AppSecret:   "app-secret",
		Username:    "merchant",
		Password:    "secret",
		BaseURL:     baseURL,
		CallbackURL: "https://shop.example/api/payments/callback",
		Timeout:     5 * time.Second,
		TokenTTL:    45 * time.Minute,
	}
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(testConfig(baseURL), nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func grantHandler(t *testing.T, grants *int, mu *sync.Mutex) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("username") != "merchant" || r.Header.Get("password") != "secret" {
			t.Errorf("grant request missing merchant credentials")
		}
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode grant payload: %v", err)
		}
		if payload["app_key"] != "app-key" || payload["app_secret"] != "app-secret" {
			t.Errorf("unexpected grant payload %v", payload)
		}

		mu.Lock()
		*grants++
		mu.Unlock()

		_ = json.NewEncoder(w).Encode(map[string]any{"id_token": "token-1", "expires_in": 3600})
	}
}

func TestTokenGrantedOncePerTTL(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		grants int
	)
	mux := http.NewServeMux()
	mux.HandleFunc(grantTokenPath, grantHandler(t, &grants, &mu))
	mux.HandleFunc(createPaymentPath, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"paymentID": "PAY1"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)

	for i := 0; i < 3; i++ {
		if _, err := client.CreatePayment(context.Background(), "order-1", 500); err != nil {
			t.Fatalf("create payment %d: %v", i, err)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if grants != 1 {
		t.Fatalf("expected a single token grant, got %d", grants)
	}
}

func TestConcurrentCallersShareOneGrant(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		grants int
	)
	mux := http.NewServeMux()
	mux.HandleFunc(grantTokenPath, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		grants++
		mu.Unlock()
		// A slow grant keeps later callers waiting on the refresh.
		time.Sleep(50 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(map[string]any{"id_token": "token-1", "expires_in": 3600})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)

	const callers = 12
	tokens := make([]string, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = client.Token(context.Background())
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if tokens[i] != "token-1" {
			t.Fatalf("caller %d got token %q", i, tokens[i])
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if grants != 1 {
		t.Fatalf("expected a single in-flight grant, got %d", grants)
	}
}

func TestCreatePaymentRequestShape(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		grants int
	)
	mux := http.NewServeMux()
	mux.HandleFunc(grantTokenPath, grantHandler(t, &grants, &mu))
	mux.HandleFunc(createPaymentPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "token-1" {
			t.Errorf("expected bearer credential, got %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("X-APP-Key") != "app-key" {
			t.Errorf("expected app key header, got %q", r.Header.Get("X-APP-Key"))
		}

		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode create payload: %v", err)
		}
		if payload["mode"] != "0011" || payload["currency"] != "BDT" || payload["intent"] != "sale" {
			t.Errorf("unexpected payment constants %v", payload)
		}
		if payload["amount"] != "2200" {
			t.Errorf("amount must be the string form, got %q", payload["amount"])
		}
		if payload["payerReference"] != "order-9" || payload["merchantInvoiceNumber"] != "order-9" {
			t.Errorf("order reference must fill both fields, got %v", payload)
		}

		_ = json.NewEncoder(w).Encode(map[string]string{
			"paymentID": "PAY9",
			"bkashURL":  "https://pay.example/PAY9",
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)

	resp, err := client.CreatePayment(context.Background(), "order-9", 2200)
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if resp.PaymentID != "PAY9" {
		t.Fatalf("unexpected payment id %q", resp.PaymentID)
	}
	if len(resp.Raw) == 0 {
		t.Fatal("raw provider body must be preserved")
	}
}

func TestCreatePaymentRejectsNonPositiveAmount(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, "http://127.0.0.1:0")

	_, err := client.CreatePayment(context.Background(), "order-1", 0)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExecutePaymentSuccessFlag(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		grants int
	)
	mux := http.NewServeMux()
	mux.HandleFunc(grantTokenPath, grantHandler(t, &grants, &mu))
	mux.HandleFunc(executePath, func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if payload["paymentID"] != "PAY9" {
			t.Errorf("expected paymentID PAY9, got %q", payload["paymentID"])
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"paymentID":             "PAY9",
			"trxID":                 "TRX100",
			"statusCode":            "0000",
			"merchantInvoiceNumber": "order-9",
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)

	resp, err := client.ExecutePayment(context.Background(), "PAY9")
	if err != nil {
		t.Fatalf("execute payment: %v", err)
	}
	if !resp.Success() {
		t.Fatalf("expected success for status code 0000, got %+v", resp)
	}
	if resp.MerchantInvoiceNumber != "order-9" || resp.TrxID != "TRX100" {
		t.Fatalf("unexpected verification fields %+v", resp)
	}
}

func TestProviderErrorsMapToGatewayCode(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc(grantTokenPath, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.ExecutePayment(context.Background(), "PAY9")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeGateway {
		t.Fatalf("expected gateway error, got %v", err)
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	t.Parallel()

	cfg := testConfig("https://example.com")
	cfg.AppSecret = ""
	if _, err := NewClient(cfg, nil); err == nil {
		t.Fatal("expected error for missing app secret")
	}

	cfg = testConfig("https://example.com")
	cfg.CallbackURL = ""
	if _, err := NewClient(cfg, nil); err == nil {
		t.Fatal("expected error for missing callback url")
	}
}
