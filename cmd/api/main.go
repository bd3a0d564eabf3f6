package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-ticket-payments.git/internal/config"
	"github.com/ariefcatur/go-ticket-payments.git/internal/httpx"
	kafkax "github.com/ariefcatur/go-ticket-payments.git/internal/kafka"
	"github.com/ariefcatur/go-ticket-payments.git/internal/ledger"
	"github.com/ariefcatur/go-ticket-payments.git/internal/orders"
	"github.com/ariefcatur/go-ticket-payments.git/internal/payfast"
	"github.com/ariefcatur/go-ticket-payments.git/internal/payments"
	"github.com/ariefcatur/go-ticket-payments.git/internal/postgres"
	"github.com/ariefcatur/go-ticket-payments.git/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// gateway profile
	profile := cfg.Gateway
	if err := payfast.ApplyDefaults(&profile); err != nil {
		log.Fatalf("gateway profile: %v", err)
	}
	signer, err := payfast.NewSigner(profile.Scheme, profile.Passphrase)
	if err != nil {
		log.Fatalf("signer: %v", err)
	}

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer (topic per event, one writer)
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024)
	prod.Start(ctx)

	orderRepo := &orders.Repo{DB: db}
	store := payments.NewPGStore(db)
	engine := &payments.Engine{
		Store:    store,
		Signer:   signer,
		Builder:  payfast.NewBuilder(profile, signer),
		Producer: prod,
		Service:  cfg.ServiceName,
	}
	queries := &ledger.Queries{Orders: orderRepo, Payments: store}

	router := httpx.NewRouter()
	oh := &httpx.OrdersHandler{Repo: orderRepo, Queries: queries, Redis: rdb}
	oh.Register(router)
	ph := &httpx.PaymentsHandler{
		Engine:  engine,
		Gateway: payfast.NewClient(profile),
		Queries: queries,
		Redis:   rdb,
	}
	ph.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s (gateway profile %s)", cfg.HTTPAddr, profile.Name)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close() // close inbox -> flush & close writer
	cancel()
	prod.WaitClosed()
}
