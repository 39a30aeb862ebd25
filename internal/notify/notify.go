package notify

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/matchacafe/api/internal/ledger"
)

// Notifier pushes a human-readable order summary to an external
// messaging endpoint. Best-effort: implementations must never return
// the transport outcome to the caller in a way that blocks an order.
type Notifier interface {
	Notify(ctx context.Context, text string)
}

// NopNotifier is used when no endpoint is configured.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string) {}

// HTTPNotifier POSTs plain-text messages with a bearer token. Failures
// are logged and discarded; there is no retry or queue.
type HTTPNotifier struct {
	url    string
	token  string
	client *http.Client
}

// NewFromConfig returns a no-op notifier unless both url and token are
// set.
func NewFromConfig(url, token string) Notifier {
	if url == "" || token == "" {
		return NopNotifier{}
	}
	return &HTTPNotifier{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (n *HTTPNotifier) Notify(ctx context.Context, text string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, strings.NewReader(text))
	if err != nil {
		log.Printf("WARN: notify: build request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+n.token)

	resp, err := n.client.Do(req)
	if err != nil {
		log.Printf("WARN: notify: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Printf("WARN: notify: endpoint returned %d", resp.StatusCode)
	}
}

// Summary formats the message sent for a confirmed order.
func Summary(o ledger.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🍵 New order %s\n", o.OrderID)
	fmt.Fprintf(&b, "%s (%s)\n", o.Name, o.Phone)
	fmt.Fprintf(&b, "%s / %s / %s\n", o.Menu, o.Sweetness, o.Temperature)
	if o.Note != "" {
		fmt.Fprintf(&b, "note: %s\n", o.Note)
	}
	if o.DeliveryFee.IsPositive() {
		fmt.Fprintf(&b, "total: %s บาท (incl. delivery %s)", o.TotalPrice, o.DeliveryFee)
	} else {
		fmt.Fprintf(&b, "total: %s บาท", o.TotalPrice)
	}
	return b.String()
}
