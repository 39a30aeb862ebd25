package wizard_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/matchacafe/api/internal/catalog"
	"github.com/matchacafe/api/internal/ledger"
	"github.com/matchacafe/api/internal/notify"
	"github.com/matchacafe/api/internal/slips"
	"github.com/matchacafe/api/internal/wizard"
	"github.com/shopspring/decimal"
)

type fixture struct {
	w        *wizard.Wizard
	store    *ledger.FileStore
	slipsDir string
}

func newFixture(t *testing.T, fee int64, opts ...wizard.Option) *fixture {
	t.Helper()
	dir := t.TempDir()
	store := ledger.NewFileStore(filepath.Join(dir, "orders.csv"))
	slipsDir := filepath.Join(dir, "slips")
	slipStore, err := slips.NewStore(slipsDir)
	if err != nil {
		t.Fatalf("slip store: %v", err)
	}
	w := wizard.New(catalog.Default(), store, slipStore, notify.NopNotifier{}, decimal.NewFromInt(fee), opts...)
	return &fixture{w: w, store: store, slipsDir: slipsDir}
}

func (f *fixture) slipCount(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(f.slipsDir)
	if err != nil {
		t.Fatalf("read slips dir: %v", err)
	}
	return len(entries)
}

func advanceToPayment(t *testing.T, w *wizard.Wizard, s *wizard.Session) {
	t.Helper()
	if err := w.Register(s, "Nam", "0899999999"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := w.Select(s, "clear matcha (50 บาท)", "หวานปกติ", "เย็น", ""); err != nil {
		t.Fatalf("select: %v", err)
	}
}

func TestRegisterRejectsBlankFields(t *testing.T) {
	f := newFixture(t, 0)

	tests := []struct {
		name, phone string
		wantErr     error
	}{
		{"", "0899999999", wizard.ErrNameRequired},
		{"   ", "0899999999", wizard.ErrNameRequired},
		{"\t\n", "0899999999", wizard.ErrNameRequired},
		{"Nam", "", wizard.ErrPhoneRequired},
		{"Nam", "   ", wizard.ErrPhoneRequired},
		{"", "", wizard.ErrNameRequired},
	}

	for _, tt := range tests {
		_, s := wizard.NewSessions().New()
		err := f.w.Register(s, tt.name, tt.phone)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("Register(%q, %q): got %v, want %v", tt.name, tt.phone, err, tt.wantErr)
		}
		st := s.State()
		if st.Step != wizard.StepRegistration || st.HasCustomer {
			t.Errorf("Register(%q, %q): working state changed on rejection", tt.name, tt.phone)
		}
	}
}

func TestRegisterTrimsAndAdvances(t *testing.T) {
	f := newFixture(t, 0)
	_, s := wizard.NewSessions().New()

	if err := f.w.Register(s, "  Nam  ", " 0899999999 "); err != nil {
		t.Fatalf("register: %v", err)
	}
	st := s.State()
	if st.Step != wizard.StepSelection {
		t.Errorf("step: got %s, want %s", st.Step, wizard.StepSelection)
	}
	if st.Customer.Name != "Nam" || st.Customer.Phone != "0899999999" {
		t.Errorf("customer not trimmed: %+v", st.Customer)
	}
	if st.Customer.RegisteredAt.IsZero() {
		t.Error("registration timestamp not set")
	}
}

func TestBackNavigationPreservesData(t *testing.T) {
	f := newFixture(t, 0)
	_, s := wizard.NewSessions().New()
	advanceToPayment(t, f.w, s)

	// Payment -> Selection -> Registration and forward again.
	if err := f.w.Back(s); err != nil {
		t.Fatalf("back to selection: %v", err)
	}
	if err := f.w.Back(s); err != nil {
		t.Fatalf("back to registration: %v", err)
	}

	st := s.State()
	if st.Step != wizard.StepRegistration {
		t.Fatalf("step: got %s", st.Step)
	}
	if !st.HasCustomer || st.Customer.Name != "Nam" || st.Customer.Phone != "0899999999" {
		t.Error("back navigation lost customer data")
	}
	if !st.HasSelection || st.Selection.Menu != "clear matcha (50 บาท)" {
		t.Error("back navigation lost selection data")
	}

	// Back from Registration is not a transition.
	if err := f.w.Back(s); !errors.Is(err, wizard.ErrWrongStep) {
		t.Errorf("back at registration: got %v, want ErrWrongStep", err)
	}
}

func TestSelectComputesTotals(t *testing.T) {
	f := newFixture(t, 5)
	_, s := wizard.NewSessions().New()
	if err := f.w.Register(s, "Nam", "0899999999"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := f.w.Select(s, "clear matcha (50 บาท)", "หวานปกติ", "", "less ice"); err != nil {
		t.Fatalf("select: %v", err)
	}

	st := s.State()
	if !st.Selection.Price.Equal(decimal.NewFromInt(50)) {
		t.Errorf("price: got %s", st.Selection.Price)
	}
	if !st.Selection.DeliveryFee.Equal(decimal.NewFromInt(5)) {
		t.Errorf("fee: got %s", st.Selection.DeliveryFee)
	}
	if !st.Selection.Total.Equal(decimal.NewFromInt(55)) {
		t.Errorf("total: got %s", st.Selection.Total)
	}
	if st.Selection.Temperature != catalog.TempCold {
		t.Errorf("empty temperature should take the default, got %q", st.Selection.Temperature)
	}
}

func TestSelectRejectsUnknownOptions(t *testing.T) {
	f := newFixture(t, 0)

	tests := []struct {
		menu, sweetness, temp string
		wantErr               error
	}{
		{"espresso", "หวานปกติ", "เย็น", wizard.ErrUnknownMenu},
		{"clear matcha (50 บาท)", "no sugar", "เย็น", wizard.ErrUnknownSweetness},
		{"clear matcha (50 บาท)", "หวานปกติ", "warm", wizard.ErrUnknownTemp},
	}

	for _, tt := range tests {
		_, s := wizard.NewSessions().New()
		if err := f.w.Register(s, "Nam", "0899999999"); err != nil {
			t.Fatalf("register: %v", err)
		}
		err := f.w.Select(s, tt.menu, tt.sweetness, tt.temp, "")
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("Select(%q,%q,%q): got %v, want %v", tt.menu, tt.sweetness, tt.temp, err, tt.wantErr)
		}
		if st := s.State(); st.Step != wizard.StepSelection || st.HasSelection {
			t.Errorf("Select(%q,%q,%q): working state changed on rejection", tt.menu, tt.sweetness, tt.temp)
		}
	}
}

func TestConfirmWithoutSlip(t *testing.T) {
	f := newFixture(t, 0)
	_, s := wizard.NewSessions().New()
	advanceToPayment(t, f.w, s)

	_, err := f.w.Confirm(context.Background(), s, "slip.jpg", nil)
	if !errors.Is(err, wizard.ErrSlipRequired) {
		t.Fatalf("expected ErrSlipRequired, got %v", err)
	}

	orders, err := f.store.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(orders) != 0 {
		t.Error("confirmation without slip appended to the ledger")
	}
	if f.slipCount(t) != 0 {
		t.Error("confirmation without slip wrote an image file")
	}
	if st := s.State(); st.Step != wizard.StepPayment || st.Confirmed {
		t.Error("session state changed on rejected confirmation")
	}
}

func TestConfirmPersistsOrder(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	f := newFixture(t, 0, wizard.WithClock(func() time.Time { return now }))
	_, s := wizard.NewSessions().New()
	advanceToPayment(t, f.w, s)

	order, err := f.w.Confirm(context.Background(), s, "slip.jpg", []byte("jpeg-bytes"))
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if order.OrderID != "ORD-20250314093000-nam-9999" {
		t.Errorf("order id: got %q", order.OrderID)
	}
	if !order.Price.Equal(decimal.NewFromInt(50)) || !order.TotalPrice.Equal(decimal.NewFromInt(50)) {
		t.Errorf("money: price %s total %s", order.Price, order.TotalPrice)
	}
	if order.SlipFile == "" {
		t.Fatal("persisted order without slip reference")
	}
	if f.slipCount(t) != 1 {
		t.Errorf("expected exactly 1 slip file, got %d", f.slipCount(t))
	}

	orders, err := f.store.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(orders) != 1 || orders[0].OrderID != order.OrderID {
		t.Fatalf("ledger contents: %+v", orders)
	}

	if st := s.State(); !st.Confirmed || st.LastOrderID != order.OrderID {
		t.Error("session does not reflect confirmation")
	}

	// Double confirmation must not create a second order.
	if _, err := f.w.Confirm(context.Background(), s, "slip.jpg", []byte("x")); !errors.Is(err, wizard.ErrAlreadyConfirmed) {
		t.Errorf("second confirm: got %v, want ErrAlreadyConfirmed", err)
	}
}

func TestConfirmWithDeliveryFee(t *testing.T) {
	f := newFixture(t, 5)
	_, s := wizard.NewSessions().New()
	advanceToPayment(t, f.w, s)

	order, err := f.w.Confirm(context.Background(), s, "slip.jpg", []byte("x"))
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !order.TotalPrice.Equal(decimal.NewFromInt(55)) {
		t.Errorf("total with fee: got %s, want 55", order.TotalPrice)
	}
}

func TestConfirmGeneratesUniqueIDs(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	f := newFixture(t, 0, wizard.WithClock(func() time.Time { return now }))

	// Two identical customers confirming within the same second.
	var ids []string
	for i := 0; i < 3; i++ {
		_, s := wizard.NewSessions().New()
		advanceToPayment(t, f.w, s)
		order, err := f.w.Confirm(context.Background(), s, "slip.jpg", []byte("x"))
		if err != nil {
			t.Fatalf("confirm %d: %v", i, err)
		}
		ids = append(ids, order.OrderID)
	}

	seen := make(map[string]bool)
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate order id %q", id)
		}
		seen[id] = true
	}
}

func TestConcurrentConfirmsGetUniqueIDs(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	f := newFixture(t, 0, wizard.WithClock(func() time.Time { return now }))

	// Identical customers confirming at the same instant from separate
	// sessions. Every confirmation must land in the ledger under its
	// own ID.
	const n = 8
	sessions := make([]*wizard.Session, n)
	for i := range sessions {
		_, s := wizard.NewSessions().New()
		advanceToPayment(t, f.w, s)
		sessions[i] = s
	}

	orders := make([]ledger.Order, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i, s := range sessions {
		wg.Add(1)
		go func(i int, s *wizard.Session) {
			defer wg.Done()
			orders[i], errs[i] = f.w.Confirm(context.Background(), s, "slip.jpg", []byte("x"))
		}(i, s)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("confirm %d: %v", i, errs[i])
		}
		if seen[orders[i].OrderID] {
			t.Fatalf("duplicate order id %q", orders[i].OrderID)
		}
		seen[orders[i].OrderID] = true
	}

	persisted, err := f.store.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("load ledger: %v", err)
	}
	if len(persisted) != n {
		t.Fatalf("ledger has %d orders, want %d", len(persisted), n)
	}
}

func TestConfirmLeavesPriorRecordsUntouched(t *testing.T) {
	f := newFixture(t, 0)

	_, first := wizard.NewSessions().New()
	advanceToPayment(t, f.w, first)
	firstOrder, err := f.w.Confirm(context.Background(), first, "slip.jpg", []byte("a"))
	if err != nil {
		t.Fatalf("first confirm: %v", err)
	}

	_, second := wizard.NewSessions().New()
	if err := f.w.Register(second, "Bo", "0811111111"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := f.w.Select(second, "coconut matcha (60 บาท)", "หวานน้อย", "ร้อน", ""); err != nil {
		t.Fatalf("select: %v", err)
	}
	if _, err := f.w.Confirm(context.Background(), second, "slip.png", []byte("b")); err != nil {
		t.Fatalf("second confirm: %v", err)
	}

	orders, err := f.store.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}
	if orders[0].OrderID != firstOrder.OrderID || orders[0].Name != "Nam" {
		t.Error("first record changed after second append")
	}
	if f.slipCount(t) != 2 {
		t.Errorf("expected 2 slip files, got %d", f.slipCount(t))
	}
}

// failingStore appends always fail, to exercise the undo path.
type failingStore struct{}

func (failingStore) Append(context.Context, ledger.Order) error {
	return errors.New("disk full")
}
func (failingStore) LoadAll(context.Context) ([]ledger.Order, error) {
	return []ledger.Order{}, nil
}

func TestConfirmRemovesSlipWhenAppendFails(t *testing.T) {
	dir := t.TempDir()
	slipStore, err := slips.NewStore(dir)
	if err != nil {
		t.Fatalf("slip store: %v", err)
	}
	w := wizard.New(catalog.Default(), failingStore{}, slipStore, notify.NopNotifier{}, decimal.Zero)

	_, s := wizard.NewSessions().New()
	advanceToPayment(t, w, s)

	if _, err := w.Confirm(context.Background(), s, "slip.jpg", []byte("x")); err == nil {
		t.Fatal("expected confirm to fail")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read slips dir: %v", err)
	}
	if len(entries) != 0 {
		t.Error("slip file left behind after failed append")
	}
	if st := s.State(); st.Confirmed {
		t.Error("session marked confirmed despite failed append")
	}
}

func TestResetClearsWorkingState(t *testing.T) {
	f := newFixture(t, 0)
	_, s := wizard.NewSessions().New()
	advanceToPayment(t, f.w, s)
	if _, err := f.w.Confirm(context.Background(), s, "slip.jpg", []byte("x")); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	f.w.Reset(s)

	st := s.State()
	if st.Step != wizard.StepRegistration || st.HasCustomer || st.HasSelection || st.Confirmed || st.LastOrderID != "" {
		t.Errorf("reset left state behind: %+v", st)
	}

	// The session is reusable for a fresh order.
	if err := f.w.Register(s, "Nam", "0899999999"); err != nil {
		t.Fatalf("register after reset: %v", err)
	}
}

func TestTimestampID(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	c := wizard.Customer{Name: "Nam Chai!", Phone: "089-999-9999"}

	got := wizard.TimestampID(now, c)
	if got != "ORD-20250314093000-namchai-9999" {
		t.Errorf("id: got %q", got)
	}
}
