package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const createOrdersTable = `
CREATE TABLE IF NOT EXISTS orders (
    seq          BIGSERIAL PRIMARY KEY,
    order_id     TEXT NOT NULL UNIQUE,
    created_at   TEXT NOT NULL,
    name         TEXT NOT NULL,
    phone        TEXT NOT NULL,
    menu         TEXT NOT NULL,
    sweetness    TEXT NOT NULL,
    temperature  TEXT NOT NULL,
    note         TEXT NOT NULL DEFAULT '',
    price        NUMERIC(12,2) NOT NULL,
    delivery_fee NUMERIC(12,2) NOT NULL,
    total_price  NUMERIC(12,2) NOT NULL,
    slip_file    TEXT NOT NULL
)`

// PGStore is the swap-in transactional ledger. Append is a single
// INSERT, so concurrent confirmations cannot lose records the way the
// flat-file store can.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore connects to Postgres and ensures the orders table exists.
func NewPGStore(ctx context.Context, databaseURL string) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if _, err := pool.Exec(ctx, createOrdersTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure orders table: %w", err)
	}
	return &PGStore{pool: pool}, nil
}

func (s *PGStore) Append(ctx context.Context, o Order) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO orders
			(order_id, created_at, name, phone, menu, sweetness, temperature, note,
			 price, delivery_fee, total_price, slip_file)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		o.OrderID, o.CreatedAt, o.Name, o.Phone, o.Menu, o.Sweetness, o.Temperature, o.Note,
		o.Price, o.DeliveryFee, o.TotalPrice, o.SlipFile,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (s *PGStore) LoadAll(ctx context.Context) ([]Order, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT order_id, created_at, name, phone, menu, sweetness, temperature, note,
		       price, delivery_fee, total_price, slip_file
		FROM orders
		ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		var o Order
		var price, fee, total string
		if err := rows.Scan(
			&o.OrderID, &o.CreatedAt, &o.Name, &o.Phone,
			&o.Menu, &o.Sweetness, &o.Temperature, &o.Note,
			&price, &fee, &total, &o.SlipFile,
		); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		if o.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse price: %w", err)
		}
		if o.DeliveryFee, err = decimal.NewFromString(fee); err != nil {
			return nil, fmt.Errorf("parse delivery_fee: %w", err)
		}
		if o.TotalPrice, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("parse total_price: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

// Close releases the underlying connection pool.
func (s *PGStore) Close() {
	s.pool.Close()
}
