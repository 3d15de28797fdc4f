package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/evapotranspiration-service/internal/evapotranspiration"
	"github.com/kjstillabower/evapotranspiration-service/internal/lifecycle"
	"github.com/kjstillabower/evapotranspiration-service/internal/models"
	"github.com/kjstillabower/evapotranspiration-service/internal/observability"
	"github.com/kjstillabower/evapotranspiration-service/internal/traffic"
	"github.com/kjstillabower/evapotranspiration-service/internal/validation"
)

// maxBodyBytes bounds POST bodies; a record is eight numbers.
const maxBodyBytes = 64 << 10

// HealthConfig holds lifecycle thresholds for the health handler.
type HealthConfig struct {
	OverloadWindow       time.Duration
	OverloadThresholdPct int
	RateLimitRPS         int
	// CachePing, when set, is called to check cache reachability. Used when backend is memcached.
	CachePing func() error
}

// Calculator evaluates one possibly-incomplete input record.
type Calculator interface {
	Calculate(ctx context.Context, in models.Input) (models.Result, error)
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	calculator       Calculator
	demo             models.Record
	healthConfig     *HealthConfig
	logger           *zap.Logger
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler. demo is the record served by GetDemo.
func NewHandler(calculator Calculator, demo models.Record, healthConfig *HealthConfig, logger *zap.Logger) *Handler {
	return &Handler{
		calculator:   calculator,
		demo:         demo,
		healthConfig: healthConfig,
		logger:       logger,
	}
}

// PostEvapotranspiration handles POST /evapotranspiration with a JSON object of the eight inputs.
// JSON null counts as not supplied.
func (h *Handler) PostEvapotranspiration(w http.ResponseWriter, r *http.Request) {
	var body map[string]*float64
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		traffic.Record(traffic.Rejected)
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "request body must be a JSON object of numeric fields")
		return
	}
	values := make(map[string]float64, len(body))
	for k, v := range body {
		if v != nil {
			values[k] = *v
		}
	}
	in, err := validation.InputFromMap(values)
	if err != nil {
		traffic.Record(traffic.Rejected)
		writeCalculationError(w, r, err)
		return
	}
	h.calculate(w, r, in)
}

// GetEvapotranspiration handles GET /evapotranspiration?albedo=..&... using the first value of each parameter.
func (h *Handler) GetEvapotranspiration(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	raw := make(map[string]string, len(query))
	for k := range query {
		raw[k] = query.Get(k)
	}
	in, err := validation.InputFromStrings(raw)
	if err != nil {
		traffic.Record(traffic.Rejected)
		writeCalculationError(w, r, err)
		return
	}
	h.calculate(w, r, in)
}

// GetDemo handles GET /evapotranspiration/demo.
func (h *Handler) GetDemo(w http.ResponseWriter, r *http.Request) {
	h.calculate(w, r, models.InputFromRecord(h.demo))
}

func (h *Handler) calculate(w http.ResponseWriter, r *http.Request, in models.Input) {
	result, err := h.calculator.Calculate(r.Context(), in)
	if err != nil {
		traffic.Record(traffic.Rejected)
		writeCalculationError(w, r, err)
		return
	}
	traffic.Record(traffic.Success)
	writeJSON(w, http.StatusOK, result)
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus()

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	checks := map[string]string{"evaluator": "healthy"}
	if h.healthConfig != nil && h.healthConfig.CachePing != nil {
		if h.healthConfig.CachePing() == nil {
			checks["cache"] = "healthy"
		} else {
			checks["cache"] = "unhealthy"
		}
	}
	resp := map[string]interface{}{
		"status":    result.status,
		"service":   "evapotranspiration-service",
		"version":   "dev",
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if h.healthConfig != nil && h.healthConfig.OverloadWindow > 0 {
		rejected, total := traffic.RejectionRate(h.healthConfig.OverloadWindow)
		pct := 0
		if total > 0 {
			pct = rejected * 100 / total
		}
		resp["rejectionRatePct"] = pct
	}
	writeJSON(w, result.statusCode, resp)
}

// computeHealthStatus evaluates conditions in priority order: shutting-down > overloaded > healthy.
// Evaluation has no upstream dependency, so input rejections never degrade health.
func (h *Handler) computeHealthStatus() healthResult {
	if lifecycle.IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}
	}
	if h.healthConfig == nil {
		return healthResult{"healthy", http.StatusOK, ""}
	}
	if h.healthConfig.RateLimitRPS > 0 && h.healthConfig.OverloadWindow > 0 {
		threshold := float64(h.healthConfig.RateLimitRPS) * h.healthConfig.OverloadWindow.Seconds() * float64(h.healthConfig.OverloadThresholdPct) / 100
		if float64(traffic.RequestCount(h.healthConfig.OverloadWindow)) > threshold {
			return healthResult{"overloaded", http.StatusServiceUnavailable, "overload_threshold"}
		}
	}
	return healthResult{"healthy", http.StatusOK, ""}
}

// writeJSON writes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// apiError is the error body; Stage is set for numeric failures only.
type apiError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Stage     string `json:"stage,omitempty"`
	RequestID string `json:"requestId"`
}

// writeError writes an error response with code, message and the request correlation ID.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeAPIError(w, r, status, apiError{Code: code, Message: message})
}

func writeAPIError(w http.ResponseWriter, r *http.Request, status int, e apiError) {
	e.RequestID = observability.CorrelationID(r.Context())
	writeJSON(w, status, map[string]apiError{"error": e})
}

// writeCalculationError maps validation errors to 400, numeric failures to 422 and
// expired deadlines to 503.
func writeCalculationError(w http.ResponseWriter, r *http.Request, err error) {
	observability.LoggerFromContext(r.Context()).Debug("calculation rejected", zap.Error(err))

	var fe *validation.FieldError
	if errors.As(err, &fe) {
		writeError(w, r, http.StatusBadRequest, validationCode(fe.Err), fe.Error())
		return
	}
	if stage, ok := evapotranspiration.StageOf(err); ok {
		writeAPIError(w, r, http.StatusUnprocessableEntity, apiError{
			Code:    "COMPUTATION_FAILED",
			Message: err.Error(),
			Stage:   string(stage),
		})
		return
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		writeError(w, r, http.StatusServiceUnavailable, "TIMEOUT", "request deadline exceeded")
		return
	}
	writeError(w, r, http.StatusInternalServerError, "INTERNAL", "unable to evaluate record")
}

func validationCode(err error) string {
	switch {
	case errors.Is(err, validation.ErrMissingField):
		return "MISSING_FIELD"
	case errors.Is(err, validation.ErrInvalidRange):
		return "INVALID_RANGE"
	case errors.Is(err, validation.ErrUnknownField):
		return "UNKNOWN_FIELD"
	case errors.Is(err, validation.ErrDuplicateField):
		return "DUPLICATE_FIELD"
	case errors.Is(err, validation.ErrNotANumber):
		return "INVALID_NUMBER"
	default:
		return "INVALID_INPUT"
	}
}
