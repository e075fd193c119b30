package api

import (
	"net/http"

	"github.com/alexivanou/cityinfo-api/internal/ratelimit"
	"github.com/alexivanou/cityinfo-api/internal/service"
	"github.com/alexivanou/cityinfo-api/internal/stats"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// RouterOptions configures the middleware chain around the routes
type RouterOptions struct {
	Logger         *zap.Logger
	AllowedOrigins []string
	// Limiter is optional; nil disables rate limiting
	Limiter        ratelimit.Limiter
	TrustProxy     bool
}

// NewRouter creates the HTTP handler with all routes and middleware
func NewRouter(service service.ServiceInterface, statsCollector *stats.Collector, opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	handler := NewHandler(service, logger)
	statsHandler := NewStatsHandler(statsCollector, logger)

	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(handler.NotFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(handler.MethodNotAllowed)

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/cities", handler.CreateCity).Methods("POST")
	// search must be registered before the {id} routes
	api.HandleFunc("/cities/search", handler.SearchCities).Methods("GET")
	api.HandleFunc("/cities/{id}", handler.GetCity).Methods("GET")
	api.HandleFunc("/cities/{id}", handler.UpdateCity).Methods("PATCH")
	api.HandleFunc("/cities/{id}", handler.DeleteCity).Methods("DELETE")
	api.HandleFunc("/stats", statsHandler.GetStats).Methods("GET")

	// mux only runs Use middleware on matched routes, so the chain wraps the router
	var h http.Handler = router
	if opts.Limiter != nil {
		h = rateLimit(opts.Limiter, opts.TrustProxy, logger)(h)
	}
	h = corsHandler(opts.AllowedOrigins)(h)
	h = securityHeaders(h)
	h = requestLogger(logger)(h)

	return h
}
