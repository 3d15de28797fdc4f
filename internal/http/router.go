package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/evapotranspiration-service/internal/observability"
)

// NewRouter wires handlers and middleware. Rate limiting and the request timeout apply to the
// calculation routes only; /health and /metrics stay reachable under load.
func NewRouter(h *Handler, logger *zap.Logger, limiter *rate.Limiter, requestTimeout time.Duration) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)
	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)

	calc := router.PathPrefix("/evapotranspiration").Subrouter()
	calc.Use(RateLimitMiddleware(limiter))
	calc.Use(TimeoutMiddleware(requestTimeout))
	calc.HandleFunc("", h.PostEvapotranspiration).Methods(http.MethodPost)
	calc.HandleFunc("", h.GetEvapotranspiration).Methods(http.MethodGet)
	calc.HandleFunc("/demo", h.GetDemo).Methods(http.MethodGet)
	return router
}
