package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/evapotranspiration-service/internal/cache"
	"github.com/kjstillabower/evapotranspiration-service/internal/evapotranspiration"
	"github.com/kjstillabower/evapotranspiration-service/internal/models"
	"github.com/kjstillabower/evapotranspiration-service/internal/observability"
	"github.com/kjstillabower/evapotranspiration-service/internal/validation"
)

// CalculatorService validates input records, evaluates the formula chain and memoizes results
// using the cache-aside pattern. Safe for concurrent use when the cache is.
type CalculatorService struct {
	cache cache.Cache // nil disables caching
	ttl   time.Duration
	rules validation.Rules
}

// NewCalculatorService returns a CalculatorService. A nil cache or non-positive ttl disables caching.
func NewCalculatorService(c cache.Cache, ttl time.Duration, rules validation.Rules) *CalculatorService {
	if ttl <= 0 {
		c = nil
	}
	return &CalculatorService{cache: c, ttl: ttl, rules: rules}
}

// Calculate validates in and returns its evapotranspiration result.
// Validation failures wrap validation.ErrMissingField / ErrInvalidRange; numeric failures
// carry an *evapotranspiration.StageError. Cache failures are logged and never returned.
func (s *CalculatorService) Calculate(ctx context.Context, in models.Input) (models.Result, error) {
	logger := observability.LoggerFromContext(ctx)

	record, err := validation.ValidateInput(in, s.rules)
	if err != nil {
		observability.RecordEvaluation(observability.OutcomeInvalidInput, "", 0)
		logger.Debug("input rejected", zap.Error(err))
		return models.Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.Result{}, err
	}

	key := cache.Key(record)
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			observability.CacheErrorsTotal.WithLabelValues("get").Inc()
			logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			observability.CacheHitsTotal.WithLabelValues("result").Inc()
			observability.RecordCachedEvaluation()
			logger.Debug("evaluation served", zap.String("key", key), zap.Bool("cached", true))
			cached.Cached = true
			return cached, nil
		}
	}

	start := time.Now()
	result, err := evapotranspiration.Evaluate(record)
	elapsed := time.Since(start)
	if err != nil {
		stage, _ := evapotranspiration.StageOf(err)
		observability.RecordEvaluation(observability.OutcomeComputationError, string(stage), elapsed)
		logger.Debug("evaluation failed", zap.String("stage", string(stage)), zap.Error(err))
		return models.Result{}, fmt.Errorf("evaluate record: %w", err)
	}
	observability.RecordEvaluation(observability.OutcomeSuccess, "", elapsed)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result, s.ttl); err != nil {
			observability.CacheErrorsTotal.WithLabelValues("set").Inc()
			logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
	logger.Debug("evaluation served",
		zap.String("key", key),
		zap.Bool("cached", false),
		zap.Float64("evapotranspiration", result.Evapotranspiration),
		zap.Duration("duration", elapsed))
	return result, nil
}
