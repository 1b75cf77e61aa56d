package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/library-console/internal/models"
)

// DefaultBanDays is used whenever a category's duration cannot be resolved.
const DefaultBanDays = 7

type categoryFetcher interface {
	GetCategory(ctx context.Context, id string) (*models.Category, error)
}

// CategoryResolver resolves the default ban duration for a student's category.
// Each instance caches successful lookups for its own lifetime; dialogs take
// a Fork so that nothing is shared between them.
type CategoryResolver struct {
	client   categoryFetcher
	fallback int
	logger   *zap.Logger
	metrics  *MetricsService

	mu    sync.Mutex
	cache map[string]int
}

// NewCategoryResolver constructs a resolver. A negative fallback selects DefaultBanDays.
func NewCategoryResolver(client categoryFetcher, fallback int, logger *zap.Logger, metrics *MetricsService) *CategoryResolver {
	if fallback < 0 {
		fallback = DefaultBanDays
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryResolver{
		client:   client,
		fallback: fallback,
		logger:   logger,
		metrics:  metrics,
		cache:    make(map[string]int),
	}
}

// Fork returns a resolver sharing configuration but with an empty cache.
func (r *CategoryResolver) Fork() *CategoryResolver {
	return NewCategoryResolver(r.client, r.fallback, r.logger, r.metrics)
}

// DefaultBanDays returns the number of days a ban on student lasts by default.
// It never fails: lookup problems degrade to the fallback duration.
func (r *CategoryResolver) DefaultBanDays(ctx context.Context, student models.Student) int {
	ref := student.Category
	if ref.Embedded != nil && ref.Embedded.DefaultBanDuration != nil && *ref.Embedded.DefaultBanDuration >= 0 {
		return *ref.Embedded.DefaultBanDuration
	}
	id := ref.Value()
	if id == "" {
		return r.fallback
	}

	r.mu.Lock()
	days, ok := r.cache[id]
	r.mu.Unlock()
	if ok {
		return days
	}

	category, err := r.client.GetCategory(ctx, id)
	if err != nil || category == nil || category.DefaultBanDuration == nil {
		r.logger.Warn("category lookup failed, using default ban duration",
			zap.String("category_id", id),
			zap.String("student_id", student.ID),
			zap.Int("default_days", r.fallback),
			zap.Error(err),
		)
		r.metrics.RecordCategoryFallback()
		return r.fallback
	}

	days = *category.DefaultBanDuration
	r.mu.Lock()
	r.cache[id] = days
	r.mu.Unlock()
	return days
}
