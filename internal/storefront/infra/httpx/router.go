package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jcmexdev/storefront-preorders/internal/storefront/infra/httpx/middlewares"
)

// NewRouter mounts the order API and, when realtime is non-nil, the
// WebSocket feed.
func NewRouter(handler *Handler, realtime http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.AttachRequestContext)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", handler.Healthz)

	r.Post("/orders", handler.PlaceOrder)
	r.Get("/orders", handler.ListOrders)
	r.Post("/api/preorder", handler.PlaceOrder)
	r.Get("/api/orders", handler.ListOrders)

	if realtime != nil {
		r.Handle("/ws", realtime)
		r.Handle("/socket", realtime)
	}

	return otelhttp.NewHandler(r, "storefront",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
