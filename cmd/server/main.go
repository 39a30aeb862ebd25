package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/matchacafe/api/internal/catalog"
	"github.com/matchacafe/api/internal/config"
	"github.com/matchacafe/api/internal/ledger"
	"github.com/matchacafe/api/internal/notify"
	"github.com/matchacafe/api/internal/router"
	"github.com/matchacafe/api/internal/slips"
	"github.com/matchacafe/api/internal/wizard"
	"github.com/matchacafe/api/internal/ws"
)

func main() {
	cfg := config.Load()

	var store ledger.Store
	if cfg.DatabaseURL != "" {
		pg, err := ledger.NewPGStore(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("open postgres ledger: %v", err)
		}
		defer pg.Close()
		store = pg
		log.Println("Using Postgres ledger")
	} else {
		store = ledger.NewFileStore(cfg.LedgerFile)
		log.Printf("Using CSV ledger at %s", cfg.LedgerFile)
	}

	slipStore, err := slips.NewStore(cfg.SlipsDir)
	if err != nil {
		log.Fatalf("open slip store: %v", err)
	}

	hub := ws.NewHub()
	go hub.Run()

	notifier := notify.NewFromConfig(cfg.NotifyURL, cfg.NotifyToken)
	if _, ok := notifier.(notify.NopNotifier); ok {
		log.Println("Notifier disabled (NOTIFY_URL/NOTIFY_TOKEN not set)")
	}

	wiz := wizard.New(
		catalog.Default(),
		store,
		slipStore,
		notifier,
		cfg.DeliveryFee,
		wizard.WithConfirmedHook(func(o ledger.Order) { hub.BroadcastOrderCreated(o) }),
	)
	sessions := wizard.NewSessions()

	r := router.New(cfg, store, slipStore, wiz, sessions, hub)

	log.Printf("Starting server on :%s", cfg.Port)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		log.Fatal(err)
	}
}
