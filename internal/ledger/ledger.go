package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// Errors returned by ledger stores.
var (
	ErrSchemaMismatch = errors.New("ledger file header does not match the expected schema")
	ErrNotFound       = errors.New("order not found")
)

// Order is one completed order, immutable once appended.
type Order struct {
	OrderID     string          `json:"order_id"`
	CreatedAt   string          `json:"created_at"` // RFC3339
	Name        string          `json:"name"`
	Phone       string          `json:"phone"`
	Menu        string          `json:"menu"`
	Sweetness   string          `json:"sweetness"`
	Temperature string          `json:"temperature"`
	Note        string          `json:"note,omitempty"`
	Price       decimal.Decimal `json:"price"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	SlipFile    string          `json:"slip_file"`
}

// Store persists the order ledger. Implementations must keep appended
// records byte-for-byte stable: there is no update or delete.
type Store interface {
	// Append adds one order at the end of the ledger.
	Append(ctx context.Context, o Order) error
	// LoadAll returns every order in append order. A ledger that has
	// never been written to yields an empty slice, not an error.
	LoadAll(ctx context.Context) ([]Order, error)
}

// FindByID scans orders for an exact identifier match. The ledger has
// no index; admin lookups are a linear scan by design.
func FindByID(orders []Order, id string) (Order, error) {
	for _, o := range orders {
		if o.OrderID == id {
			return o, nil
		}
	}
	return Order{}, ErrNotFound
}
