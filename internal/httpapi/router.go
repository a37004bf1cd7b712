package httpapi

import (
	"context"
	"net/http"

	"foodorder-be/internal/logger"
	"foodorder-be/internal/middleware"
	"foodorder-be/internal/model"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

type Options struct {
	JWTSecret   string
	CORSOrigins []string
	Limiter     *middleware.RateLimiter
	Metrics     http.Handler
	Ping        func(ctx context.Context) error
}

func NewRouter(h *Handler, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP, logger.RequestIDMiddleware, logger.LoggingMiddleware, middleware.Recover, withRoute)

	limit := func(next http.Handler) http.Handler { return next }
	if opts.Limiter != nil {
		limit = opts.Limiter.Middleware
	}

	r.Get("/health", health(opts.Ping))
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.With(limit).Post("/chatbot", h.chatbot)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(opts.JWTSecret, string(model.RoleUser)), limit)

		r.Post("/checkout", h.checkout)
		r.Get("/orders", h.listOrders)
		r.Delete("/orders", h.cancelOrder)
		r.Patch("/orders", h.editOrder)
		r.Post("/reviews/restaurant", h.rate(false))
		r.Post("/reviews/menu-item", h.rate(true))
		r.Get("/products/top", h.topProducts)
	})

	r.Route("/restaurant", func(r chi.Router) {
		r.Use(middleware.RequireRole(opts.JWTSecret, string(model.RoleRestaurant)), limit)

		r.Get("/orders", h.restaurantOrders)
		r.Patch("/orders", h.updateOrderStatus)
		r.Get("/profile", h.restaurantProfile)
		r.Get("/stats", h.restaurantStats)
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID", "X-Device-ID"},
		AllowCredentials: true,
	})

	return otelhttp.NewHandler(c.Handler(r), "foodorder-api",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// withRoute names the server span after the matched chi pattern once routing
// is done.
func withRoute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)

		rctx := chi.RouteContext(r.Context())
		if rctx == nil {
			return
		}
		if pattern := rctx.RoutePattern(); pattern != "" {
			span := oteltrace.SpanFromContext(r.Context())
			span.SetName(r.Method + " " + pattern)
			span.SetAttributes(semconv.HTTPRoute(pattern))
		}
	})
}
