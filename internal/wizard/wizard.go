// Package wizard implements the three-step order flow: a customer
// registers contact details, picks a drink, then uploads a payment
// slip. Each session owns one working order; nothing is shared between
// sessions except the ledger and the slip directory.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/matchacafe/api/internal/catalog"
	"github.com/matchacafe/api/internal/ledger"
	"github.com/matchacafe/api/internal/notify"
	"github.com/shopspring/decimal"
)

// Step is the wizard position within one session.
type Step string

const (
	StepRegistration Step = "REGISTRATION"
	StepSelection    Step = "SELECTION"
	StepPayment      Step = "PAYMENT"
)

// Errors returned by wizard transitions.
var (
	ErrNameRequired     = errors.New("name is required")
	ErrPhoneRequired    = errors.New("phone is required")
	ErrUnknownMenu      = errors.New("menu item not in catalog")
	ErrUnknownSweetness = errors.New("unknown sweetness level")
	ErrUnknownTemp      = errors.New("unknown temperature")
	ErrSlipRequired     = errors.New("payment slip image is required")
	ErrWrongStep        = errors.New("action not allowed at this step")
	ErrAlreadyConfirmed = errors.New("order already confirmed, start a new order")
)

// Customer is the registration snapshot held in working state.
type Customer struct {
	Name         string
	Phone        string
	RegisteredAt time.Time
}

// Selection is the drink snapshot held in working state. Price is
// looked up from the catalog at selection time and immutable after.
type Selection struct {
	Menu        string
	Sweetness   string
	Temperature string
	Note        string
	Price       decimal.Decimal
	DeliveryFee decimal.Decimal
	Total       decimal.Decimal
}

// SlipStore is the slice of the slip store the wizard needs.
type SlipStore interface {
	Save(originalName string, data []byte) (string, error)
	Remove(name string) error
}

// IDGenerator derives an order identifier from creation time and the
// customer snapshot. Uniqueness against the ledger is enforced by the
// wizard, not the generator.
type IDGenerator func(now time.Time, c Customer) string

// TimestampID is the default generator:
// ORD-<yyyymmddhhmmss>-<normalized name>-<last 4 phone digits>.
func TimestampID(now time.Time, c Customer) string {
	return fmt.Sprintf("ORD-%s-%s-%s",
		now.Format("20060102150405"), normalizeName(c.Name), phoneTail(c.Phone))
}

// Wizard drives sessions through the order flow and owns the confirm
// pipeline. Construct once, share across sessions.
type Wizard struct {
	catalog     *catalog.Catalog
	store       ledger.Store
	slips       SlipStore
	notifier    notify.Notifier
	deliveryFee decimal.Decimal
	genID       IDGenerator
	now         func() time.Time
	onConfirmed func(ledger.Order) // optional hook, e.g. ws broadcast

	confirmMu sync.Mutex // serializes ID generation + append across sessions
}

// Option configures a Wizard.
type Option func(*Wizard)

// WithIDGenerator replaces the default order-ID strategy.
func WithIDGenerator(g IDGenerator) Option {
	return func(w *Wizard) { w.genID = g }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(w *Wizard) { w.now = now }
}

// WithConfirmedHook registers a callback invoked after an order is
// persisted. Must not block.
func WithConfirmedHook(fn func(ledger.Order)) Option {
	return func(w *Wizard) { w.onConfirmed = fn }
}

func New(cat *catalog.Catalog, store ledger.Store, slips SlipStore, notifier notify.Notifier, deliveryFee decimal.Decimal, opts ...Option) *Wizard {
	w := &Wizard{
		catalog:     cat,
		store:       store,
		slips:       slips,
		notifier:    notifier,
		deliveryFee: deliveryFee,
		genID:       TimestampID,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Catalog exposes the menu the wizard sells from.
func (w *Wizard) Catalog() *catalog.Catalog {
	return w.catalog
}

// Register validates contact details and advances to Selection. On
// validation failure the session is left untouched.
func (w *Wizard) Register(s *Session, name, phone string) error {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" {
		return ErrNameRequired
	}
	if phone == "" {
		return ErrPhoneRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepRegistration {
		return ErrWrongStep
	}
	s.customer = Customer{Name: name, Phone: phone, RegisteredAt: w.now()}
	s.hasCustomer = true
	s.step = StepSelection
	return nil
}

// Select snapshots the drink choice and advances to Payment. Empty
// sweetness/temperature fall back to the catalog defaults; the form
// always has a selected default, so only unknown values fail.
func (w *Wizard) Select(s *Session, menu, sweetness, temperature, note string) error {
	if menu == "" {
		menu = w.catalog.DefaultMenu()
	}
	if sweetness == "" {
		sweetness = w.catalog.DefaultSweetness()
	}
	if temperature == "" {
		temperature = w.catalog.DefaultTemperature()
	}

	price, err := w.catalog.Price(menu)
	if err != nil {
		return ErrUnknownMenu
	}
	if !w.catalog.ValidSweetness(sweetness) {
		return ErrUnknownSweetness
	}
	if !w.catalog.ValidTemperature(temperature) {
		return ErrUnknownTemp
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepSelection {
		return ErrWrongStep
	}
	s.selection = Selection{
		Menu:        menu,
		Sweetness:   sweetness,
		Temperature: temperature,
		Note:        strings.TrimSpace(note),
		Price:       price,
		DeliveryFee: w.deliveryFee,
		Total:       price.Add(w.deliveryFee),
	}
	s.hasSelection = true
	s.step = StepPayment
	return nil
}

// Back steps the session one state backwards. Entered data is kept so
// a customer fixing a later mistake never loses earlier input.
func (w *Wizard) Back(s *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.step {
	case StepSelection:
		s.step = StepRegistration
	case StepPayment:
		s.step = StepSelection
	default:
		return ErrWrongStep
	}
	return nil
}

// Confirm runs the terminal transition: store the slip image, generate
// a unique order ID, append to the ledger, and notify best-effort. On
// any failure before the append the ledger is untouched and the saved
// slip (if any) is removed again; on notify failure the order stands.
func (w *Wizard) Confirm(ctx context.Context, s *Session, slipName string, slipData []byte) (ledger.Order, error) {
	if len(slipData) == 0 {
		return ledger.Order{}, ErrSlipRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.confirmed {
		return ledger.Order{}, ErrAlreadyConfirmed
	}
	if s.step != StepPayment || !s.hasCustomer || !s.hasSelection {
		return ledger.Order{}, ErrWrongStep
	}

	// Two sessions confirming in the same second with identical contact
	// details would otherwise both read the ledger before either writes
	// and pick the same ID. Another process writing the same CSV file
	// is still unguarded; the Postgres store's unique constraint covers
	// that case.
	w.confirmMu.Lock()
	defer w.confirmMu.Unlock()

	existing, err := w.store.LoadAll(ctx)
	if err != nil {
		return ledger.Order{}, fmt.Errorf("load ledger: %w", err)
	}

	slipFile, err := w.slips.Save(slipName, slipData)
	if err != nil {
		return ledger.Order{}, fmt.Errorf("store slip: %w", err)
	}

	now := w.now()
	order := ledger.Order{
		OrderID:     w.uniqueID(existing, now, s.customer),
		CreatedAt:   now.Format(time.RFC3339),
		Name:        s.customer.Name,
		Phone:       s.customer.Phone,
		Menu:        s.selection.Menu,
		Sweetness:   s.selection.Sweetness,
		Temperature: s.selection.Temperature,
		Note:        s.selection.Note,
		Price:       s.selection.Price,
		DeliveryFee: s.selection.DeliveryFee,
		TotalPrice:  s.selection.Total,
		SlipFile:    slipFile,
	}

	if err := w.store.Append(ctx, order); err != nil {
		if rmErr := w.slips.Remove(slipFile); rmErr != nil {
			log.Printf("WARN: orphan slip %s after failed append: %v", slipFile, rmErr)
		}
		return ledger.Order{}, fmt.Errorf("append order: %w", err)
	}

	s.confirmed = true
	s.lastOrderID = order.OrderID

	// Fire-and-forget: the order is already persisted, a notify failure
	// must not surface to the customer.
	go w.notifier.Notify(context.Background(), notify.Summary(order))

	if w.onConfirmed != nil {
		w.onConfirmed(order)
	}
	return order, nil
}

// Reset is the "start new order" action: clears all working state and
// returns to Registration.
func (w *Wizard) Reset(s *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step = StepRegistration
	s.customer = Customer{}
	s.hasCustomer = false
	s.selection = Selection{}
	s.hasSelection = false
	s.confirmed = false
	s.lastOrderID = ""
}

// uniqueID suffixes a counter until the generated ID is unused. Ledger
// IDs carry a timestamp, so collisions only happen for same-second
// confirmations from customers with identical contact details.
func (w *Wizard) uniqueID(existing []ledger.Order, now time.Time, c Customer) string {
	taken := make(map[string]bool, len(existing))
	for _, o := range existing {
		taken[o.OrderID] = true
	}

	id := w.genID(now, c)
	if !taken[id] {
		return id
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", id, i)
		if !taken[candidate] {
			return candidate
		}
	}
}

// normalizeName lowercases and strips everything but letters and
// digits, capped so IDs stay short.
func normalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			if b.Len() >= 12 {
				break
			}
		}
	}
	if b.Len() == 0 {
		return "customer"
	}
	return b.String()
}

// phoneTail returns the last four digits of the phone number.
func phoneTail(phone string) string {
	digits := make([]rune, 0, len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) == 0 {
		return "0000"
	}
	if len(digits) > 4 {
		digits = digits[len(digits)-4:]
	}
	return string(digits)
}
