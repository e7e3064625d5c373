package router

import (
	"net/http"

	"discount-service/internal/handler"
	"discount-service/internal/metrics"
	"discount-service/internal/middleware"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	redemptionHandler *handler.RedemptionHandler,
	discountHandler *handler.DiscountHandler,
	apiKey string,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	mux.Handle("/metrics", metrics.Handler())

	mux.HandleFunc("/api/redemptions", redemptionHandler.Redeem)

	mux.HandleFunc("/api/discounts/", func(w http.ResponseWriter, r *http.Request) {
		if handler.IsReconcilePath(r.URL.Path) {
			discountHandler.Reconcile(w, r)
			return
		}
		discountHandler.GetByID(w, r)
	})

	// Apply middleware in order: Tracing -> Metrics -> Recovery -> Logging -> CORS -> APIKeyAuth
	var h http.Handler = mux
	h = middleware.APIKeyAuth(apiKey, logger)(h)
	h = middleware.CORS(h)
	h = middleware.Logging(logger)(h)
	h = middleware.Recovery(logger)(h)
	h = middleware.Metrics(h)

	// otelhttp hands a copied request downstream, so it must sit outside
	// Metrics for the route pattern set by the mux to be visible there.
	return otelhttp.NewHandler(h, "http.server")
}
