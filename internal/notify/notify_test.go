package notify_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/matchacafe/api/internal/ledger"
	"github.com/matchacafe/api/internal/notify"
	"github.com/shopspring/decimal"
)

func TestHTTPNotifierSendsMessage(t *testing.T) {
	var gotAuth, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := notify.NewFromConfig(server.URL, "token-123")
	n.Notify(context.Background(), "order summary text")

	if gotAuth != "Bearer token-123" {
		t.Errorf("authorization header: got %q", gotAuth)
	}
	if gotBody != "order summary text" {
		t.Errorf("body: got %q", gotBody)
	}
}

func TestNotifyFailureIsSwallowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	// Also exercise the connection-refused path.
	deadURL := server.URL
	server.Close()

	// Neither call may panic or block; Notify has no error return at all.
	notify.NewFromConfig(deadURL, "token").Notify(context.Background(), "hello")
}

func TestNewFromConfigNop(t *testing.T) {
	if _, ok := notify.NewFromConfig("", "token").(notify.NopNotifier); !ok {
		t.Error("missing URL should yield NopNotifier")
	}
	if _, ok := notify.NewFromConfig("http://example.com", "").(notify.NopNotifier); !ok {
		t.Error("missing token should yield NopNotifier")
	}
}

func TestSummary(t *testing.T) {
	o := ledger.Order{
		OrderID:     "ORD-1",
		Name:        "Nam",
		Phone:       "0899999999",
		Menu:        "clear matcha (50 บาท)",
		Sweetness:   "หวานปกติ",
		Temperature: "เย็น",
		Price:       decimal.NewFromInt(50),
		DeliveryFee: decimal.NewFromInt(5),
		TotalPrice:  decimal.NewFromInt(55),
	}

	text := notify.Summary(o)
	for _, want := range []string{"ORD-1", "Nam", "0899999999", "clear matcha", "55", "delivery 5"} {
		if !strings.Contains(text, want) {
			t.Errorf("summary missing %q:\n%s", want, text)
		}
	}

	o.DeliveryFee = decimal.Zero
	o.TotalPrice = decimal.NewFromInt(50)
	o.Note = "no straw"
	text = notify.Summary(o)
	if strings.Contains(text, "delivery") {
		t.Error("zero-fee summary should not mention delivery")
	}
	if !strings.Contains(text, "no straw") {
		t.Error("summary missing note")
	}
}
