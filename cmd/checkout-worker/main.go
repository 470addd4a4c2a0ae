package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ariefcatur/go-cart-checkout.git/internal/cart"
	"github.com/ariefcatur/go-cart-checkout.git/internal/checkout"
	"github.com/ariefcatur/go-cart-checkout.git/internal/config"
	kafkax "github.com/ariefcatur/go-cart-checkout.git/internal/kafka"
	"github.com/ariefcatur/go-cart-checkout.git/internal/postgres"
	"github.com/ariefcatur/go-cart-checkout.git/internal/redisx"
	"github.com/ariefcatur/go-cart-checkout.git/internal/storage"
	"github.com/joho/godotenv"
)

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis (dedup + storage backend)
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Worker juga butuh akses cart snapshot: reset cart setelah order sukses
	var st storage.Adapter
	switch cfg.StorageBackend {
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		defer db.Close()
		st = storage.NewPostgres(db, cfg.StorageNamespace)
	case "memory":
		st = storage.NewMemory(cfg.StorageNamespace)
	default:
		st = storage.NewRedis(rdb, cfg.StorageNamespace, storage.TTLCart)
	}
	defer st.Close()

	// Producers: placed & rejected (dua topic berbeda)
	pOK := kafkax.NewProducer(cfg.KafkaBrokers, cart.TopicOrderPlaced, 1024)
	pOK.Start(ctx)
	pRJ := kafkax.NewProducer(cfg.KafkaBrokers, cart.TopicOrderRejected, 1024)
	pRJ.Start(ctx)

	serviceName := cfg.ServiceName + "-checkout"
	svc := &checkout.Service{
		Store:          cart.NewStore(st),
		Orders:         checkout.NewOrderClient(cfg.OrderBaseURL),
		ProducerOK:     pOK,
		ProducerReject: pRJ,
		Dedup:          checkout.RedisDedup(rdb, serviceName),
		ServiceName:    serviceName,
	}

	// Consumer
	group := getenv("CHECKOUT_GROUP", "checkout-worker")
	workers := mustAtoi(os.Getenv("CHECKOUT_WORKERS"), "4")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, cart.TopicCheckoutSubmitted, workers)

	go func() {
		log.Printf("checkout consumer started: group=%s topic=%s workers=%d", group, cart.TopicCheckoutSubmitted, workers)
		if err := cons.Start(ctx, svc.HandleCheckoutSubmitted); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
	pOK.Close()
	pRJ.Close()
	pOK.WaitClosed()
	pRJ.WaitClosed()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
