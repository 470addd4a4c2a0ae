package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-cart-checkout.git/internal/cart"
	"github.com/ariefcatur/go-cart-checkout.git/internal/config"
	"github.com/ariefcatur/go-cart-checkout.git/internal/httpx"
	kafkax "github.com/ariefcatur/go-cart-checkout.git/internal/kafka"
	"github.com/ariefcatur/go-cart-checkout.git/internal/postgres"
	"github.com/ariefcatur/go-cart-checkout.git/internal/pricing"
	"github.com/ariefcatur/go-cart-checkout.git/internal/promo"
	"github.com/ariefcatur/go-cart-checkout.git/internal/redisx"
	"github.com/ariefcatur/go-cart-checkout.git/internal/storage"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis (idempotency + default storage backend)
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Storage backend buat snapshot cart
	var st storage.Adapter
	switch cfg.StorageBackend {
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("db connect: %v", err)
		}
		defer db.Close()
		st = storage.NewPostgres(db, cfg.StorageNamespace)
	case "memory":
		st = storage.NewMemory(cfg.StorageNamespace)
	default:
		st = storage.NewRedis(rdb, cfg.StorageNamespace, storage.TTLCart)
	}
	defer st.Close()

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, cart.TopicCheckoutSubmitted, 1024)
	prod.Start(ctx)

	// Store, resolver & handler
	store := cart.NewStore(st)
	resolver := promo.NewResolver(promo.NewClient(cfg.PromoBaseURL), store)
	router := httpx.NewRouter()
	ch := &httpx.CartHandler{
		Store:    store,
		Resolver: resolver,
		Memo:     pricing.NewMemo(),
		Producer: prod,
		Redis:    rdb,
		Service:  cfg.ServiceName,
	}
	ch.Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
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
	prod.Close()      // tutup inbox -> flush & close writer
	cancel()          // stop producer loop
	prod.WaitClosed() // drain
}
