package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"paygate/internal/services"
)

type Options struct {
	CORSOrigins       []string
	Redis             *redis.Client
	RequestsPerMinute int
	DBHealthy         func(ctx context.Context) bool
}

type Server struct {
	Router *chi.Mux
}

func NewServer(handler *Handler, st services.Store, opts Options) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(corsMiddleware(opts.CORSOrigins))
	r.Use(rateLimit(opts.Redis, opts.RequestsPerMinute))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		dbStatus := "disconnected"
		if opts.DBHealthy != nil && opts.DBHealthy(r.Context()) {
			dbStatus = "connected"
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"status":    "healthy",
			"database":  dbStatus,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	auth := requireMerchant(st)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Use(auth)
			r.Post("/", handler.CreateOrder)
			r.Get("/", handler.ListOrders)
			r.Get("/{orderId}", handler.GetOrder)
		})

		r.Route("/payments", func(r chi.Router) {
			// public checkout endpoints carry no credentials
			r.Post("/public", handler.CreatePublicPayment)
			r.Get("/{paymentId}/public", handler.GetPublicPayment)
			r.Get("/{paymentId}/stream", handler.StreamPayment)

			r.Group(func(r chi.Router) {
				r.Use(auth)
				r.Post("/", handler.CreatePayment)
				r.Get("/", handler.ListPayments)
				r.Get("/{paymentId}", handler.GetPayment)
			})
		})
	})

	return &Server{Router: r}
}
