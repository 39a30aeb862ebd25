package ledger

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/shopspring/decimal"
)

// header is the fixed column set of the CSV ledger. LoadAll refuses to
// parse a file with a different header instead of guessing a migration.
var header = []string{
	"order_id", "created_at", "name", "phone",
	"menu", "sweetness", "temperature", "note",
	"price", "delivery_fee", "total_price", "slip_file",
}

// FileStore persists the ledger as a headered CSV file.
//
// Append is a read-modify-write of the whole file. The mutex serializes
// appends within one process; two separate processes writing the same
// file can still lose a record to last-writer-wins. Deployments that
// need real write concurrency should use PGStore instead.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store for the given CSV path. The file is not
// created until the first Append.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Append(ctx context.Context, o Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := s.loadLocked()
	if err != nil {
		return err
	}
	orders = append(orders, o)
	return s.writeLocked(orders)
}

func (s *FileStore) LoadAll(ctx context.Context) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *FileStore) loadLocked() ([]Order, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Order{}, nil
		}
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	if len(rows) == 0 {
		return []Order{}, nil
	}
	if !sameHeader(rows[0]) {
		return nil, ErrSchemaMismatch
	}

	orders := make([]Order, 0, len(rows)-1)
	for i, row := range rows[1:] {
		o, err := fromRow(row)
		if err != nil {
			return nil, fmt.Errorf("ledger row %d: %w", i+2, err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// writeLocked rewrites the full ledger via a temp file rename so a
// crash mid-write never truncates existing records.
func (s *FileStore) writeLocked(orders []Order) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".orders-*.csv")
	if err != nil {
		return fmt.Errorf("create temp ledger: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("write ledger header: %w", err)
	}
	for _, o := range orders {
		if err := w.Write(toRow(o)); err != nil {
			tmp.Close()
			return fmt.Errorf("write ledger row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp ledger: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}

func sameHeader(row []string) bool {
	if len(row) != len(header) {
		return false
	}
	for i, col := range header {
		if row[i] != col {
			return false
		}
	}
	return true
}

func toRow(o Order) []string {
	return []string{
		o.OrderID, o.CreatedAt, o.Name, o.Phone,
		o.Menu, o.Sweetness, o.Temperature, o.Note,
		o.Price.String(), o.DeliveryFee.String(), o.TotalPrice.String(), o.SlipFile,
	}
}

func fromRow(row []string) (Order, error) {
	if len(row) != len(header) {
		return Order{}, fmt.Errorf("expected %d columns, got %d", len(header), len(row))
	}

	price, err := decimal.NewFromString(row[8])
	if err != nil {
		return Order{}, fmt.Errorf("price: %w", err)
	}
	fee, err := decimal.NewFromString(row[9])
	if err != nil {
		return Order{}, fmt.Errorf("delivery_fee: %w", err)
	}
	total, err := decimal.NewFromString(row[10])
	if err != nil {
		return Order{}, fmt.Errorf("total_price: %w", err)
	}

	return Order{
		OrderID:     row[0],
		CreatedAt:   row[1],
		Name:        row[2],
		Phone:       row[3],
		Menu:        row[4],
		Sweetness:   row[5],
		Temperature: row[6],
		Note:        row[7],
		Price:       price,
		DeliveryFee: fee,
		TotalPrice:  total,
		SlipFile:    row[11],
	}, nil
}
