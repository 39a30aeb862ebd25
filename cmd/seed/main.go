// Command seed fills a ledger with sample orders for local
// development, so the admin console has something to show before any
// real customer has ordered.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/matchacafe/api/internal/catalog"
	"github.com/matchacafe/api/internal/ledger"
	"github.com/matchacafe/api/internal/wizard"
	"github.com/shopspring/decimal"
)

type sample struct {
	name, phone, menu, sweetness, temp, note string
}

var samples = []sample{
	{"Nam", "0899999999", "clear matcha (50 บาท)", catalog.SweetnessNormal, catalog.TempCold, ""},
	{"Bo", "0811111111", "matcha oat milk (60 บาท)", catalog.SweetnessLow, catalog.TempHot, "no straw"},
	{"Ploy", "0822222222", "coconut matcha (60 บาท)", catalog.SweetnessHigh, catalog.TempCold, ""},
}

func main() {
	ledgerFile := flag.String("ledger", "", "CSV ledger path (default $LEDGER_FILE or orders.csv)")
	flag.Parse()

	path := *ledgerFile
	if path == "" {
		path = os.Getenv("LEDGER_FILE")
	}
	if path == "" {
		path = "orders.csv"
	}

	ctx := context.Background()

	var store ledger.Store
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pg, err := ledger.NewPGStore(ctx, dbURL)
		if err != nil {
			log.Fatalf("open postgres ledger: %v", err)
		}
		defer pg.Close()
		store = pg
	} else {
		store = ledger.NewFileStore(path)
	}

	cat := catalog.Default()
	now := time.Now()

	for i, s := range samples {
		price, err := cat.Price(s.menu)
		if err != nil {
			log.Fatalf("sample %d: %v", i, err)
		}
		created := now.Add(time.Duration(i-len(samples)) * time.Minute)
		c := wizard.Customer{Name: s.name, Phone: s.phone}

		order := ledger.Order{
			OrderID:     wizard.TimestampID(created, c),
			CreatedAt:   created.Format(time.RFC3339),
			Name:        s.name,
			Phone:       s.phone,
			Menu:        s.menu,
			Sweetness:   s.sweetness,
			Temperature: s.temp,
			Note:        s.note,
			Price:       price,
			DeliveryFee: decimal.Zero,
			TotalPrice:  price,
			SlipFile:    "slip_seed.jpg", // placeholder: no image file exists for seeded orders
		}
		if err := store.Append(ctx, order); err != nil {
			log.Fatalf("append sample %d: %v", i, err)
		}
		log.Printf("seeded %s", order.OrderID)
	}

	log.Printf("done: %d sample orders", len(samples))
}
