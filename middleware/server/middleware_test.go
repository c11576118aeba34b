package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/x402-network/facilitator/pkg/authheaders"
	"github.com/x402-network/facilitator/pkg/types"
)

func samplePayload() *types.PaymentPayload {
	return &types.PaymentPayload{
		X402Version: types.CurrentX402Version,
		Scheme:      types.SchemeExact,
		Network:     types.NetworkBaseSepolia,
		Payload: types.ExactPayload{
			Signature: "0x" + "ab",
			Authorization: types.ExactAuthorization{
				From:        "0x1111111111111111111111111111111111111111",
				To:          "0x2222222222222222222222222222222222222222",
				Value:       "25000",
				ValidAfter:  "0",
				ValidBefore: "99999999999",
				Nonce:       "0x" + "00",
			},
		},
	}
}

func encodedHeader(t *testing.T, p *types.PaymentPayload) string {
	t.Helper()
	raw, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func TestProtectReturns402WithoutPaymentHeader(t *testing.T) {
	x402 := NewX402Middleware("http://unused.invalid")
	priceTag := NewPriceTagBuilder().
		Network(types.NetworkBaseSepolia).
		MaxAmountRequired("25000").
		PayTo("0x2222222222222222222222222222222222222222").
		Asset("0x3333333333333333333333333333333333333333").
		Build()

	called := false
	handler := x402.Protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}), priceTag)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/premium", nil)
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", w.Code)
	}
	if called {
		t.Fatal("protected handler must not run without payment")
	}
	if w.Header().Get("X-Payment-Required") == "" {
		t.Fatal("expected X-Payment-Required header to be set")
	}
}

func TestProtectSettlesAndForwardsOnValidPayment(t *testing.T) {
	facilitator := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/settle":
			json.NewEncoder(w).Encode(types.SettleResponse{Success: true, Transaction: "0xdeadbeef", Network: types.NetworkBaseSepolia})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer facilitator.Close()

	x402 := NewX402Middleware(facilitator.URL)
	priceTag := NewPriceTagBuilder().
		Network(types.NetworkBaseSepolia).
		MaxAmountRequired("25000").
		PayTo("0x2222222222222222222222222222222222222222").
		Asset("0x3333333333333333333333333333333333333333").
		Build()

	called := false
	handler := x402.Protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), priceTag)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/premium", nil)
	req.Header.Set(paymentHeader, encodedHeader(t, samplePayload()))
	handler.ServeHTTP(w, req)

	if !called {
		t.Fatal("protected handler should have run")
	}
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get(paymentResponseHeader) == "" {
		t.Fatal("expected X-Payment-Response header to be set")
	}
}

func TestProtectReturns402WhenSettleRejects(t *testing.T) {
	facilitator := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(types.SettleResponse{Success: false, ErrorReason: types.ReasonInsufficientAmount})
	}))
	defer facilitator.Close()

	x402 := NewX402Middleware(facilitator.URL)
	priceTag := NewPriceTagBuilder().
		Network(types.NetworkBaseSepolia).
		MaxAmountRequired("25000").
		PayTo("0x2222222222222222222222222222222222222222").
		Asset("0x3333333333333333333333333333333333333333").
		Build()

	handler := x402.Protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("protected handler must not run when settlement fails")
	}), priceTag)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/premium", nil)
	req.Header.Set(paymentHeader, encodedHeader(t, samplePayload()))
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", w.Code)
	}
}

func TestProtectAttachesAuthHeadersWhenConfigured(t *testing.T) {
	var gotSettleAuth string
	facilitator := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/settle":
			gotSettleAuth = r.Header.Get("Authorization")
			json.NewEncoder(w).Encode(types.SettleResponse{Success: true, Transaction: "0xdeadbeef", Network: types.NetworkBaseSepolia})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer facilitator.Close()

	bearer := authheaders.NewStaticBearer("key-id", "secret", facilitator.URL, "/v2/x402",
		authheaders.SDKInfo{SDKVersion: "1.0.0", SDKLanguage: "go", Source: "x402", SourceVersion: "1.0.0"})
	x402 := NewX402Middleware(facilitator.URL).WithAuthHeaders(bearer)
	priceTag := NewPriceTagBuilder().
		Network(types.NetworkBaseSepolia).
		MaxAmountRequired("25000").
		PayTo("0x2222222222222222222222222222222222222222").
		Asset("0x3333333333333333333333333333333333333333").
		Build()

	handler := x402.Protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), priceTag)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/premium", nil)
	req.Header.Set(paymentHeader, encodedHeader(t, samplePayload()))
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.HasPrefix(gotSettleAuth, "Bearer ") {
		t.Fatalf("expected /settle call to carry a bearer token, got %q", gotSettleAuth)
	}
}
