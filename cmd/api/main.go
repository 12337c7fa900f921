package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"

	"paygate/internal/config"
	"paygate/internal/db"
	"paygate/internal/events"
	internalhttp "paygate/internal/http"
	"paygate/internal/services"
	"paygate/internal/simulate"
	"paygate/internal/store"
	"paygate/internal/worker"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	st := store.New(pool)

	sim := simulate.New(simulate.Config{
		TestMode:        cfg.Simulator.TestMode,
		FixedDelay:      cfg.FixedDelay(),
		ForcedSuccess:   cfg.Simulator.ForcedSuccess,
		MinDelay:        cfg.MinDelay(),
		MaxDelay:        cfg.MaxDelay(),
		CardSuccessRate: cfg.Simulator.CardSuccessRate,
		UPISuccessRate:  cfg.Simulator.UPISuccessRate,
	}, nil)
	if cfg.Simulator.TestMode {
		log.Printf("simulator in test mode: delay=%v forced_success=%v", cfg.FixedDelay(), cfg.Simulator.ForcedSuccess)
	}

	var publisher services.EventPublisher
	if cfg.NATS.URL != "" {
		pub, err := events.Connect(cfg.NATS.URL)
		if err != nil {
			log.Fatalf("nats connect failed: %v", err)
		}
		defer pub.Close()
		publisher = pub
	}

	feed := internalhttp.NewHub()
	orderSvc := &services.OrderService{Store: st}
	paymentSvc := services.NewPaymentService(st, sim, publisher, feed)

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		defer rdb.Close()
	}

	h := internalhttp.NewHandler(orderSvc, paymentSvc, feed)
	srv := internalhttp.NewServer(h, st, internalhttp.Options{
		CORSOrigins:       cfg.Server.CORSOrigins,
		Redis:             rdb,
		RequestsPerMinute: cfg.Redis.RequestsPerMinute,
		DBHealthy: func(ctx context.Context) bool {
			return db.Healthy(ctx, pool)
		},
	})

	reconciler := &worker.Reconciler{
		Store:    st,
		Interval: time.Minute,
		MaxAge:   cfg.MaxDelay() + time.Minute,
		Feed:     feed,
		Events:   publisher,
	}
	go reconciler.Run(ctx)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Router,
	}

	go func() {
		log.Printf("api listening on %s", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = httpServer.Shutdown(ctxShutdown)
}
