package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/noah-isme/library-console/internal/models"
)

func intPtr(v int) *int { return &v }

func TestResolverUsesEmbeddedDuration(t *testing.T) {
	lib := &mockLibrary{}
	resolver := NewCategoryResolver(lib, DefaultBanDays, zap.NewNop(), nil)

	student := models.Student{ID: "s1", Category: models.EmbeddedCategory(models.Category{ID: "c1", DefaultBanDuration: intPtr(30)})}
	assert.Equal(t, 30, resolver.DefaultBanDays(context.Background(), student))
	assert.Empty(t, lib.calls)
}

func TestResolverFetchesByIdentifierAndCaches(t *testing.T) {
	lib := &mockLibrary{categories: map[string]models.Category{"c1": {ID: "c1", DefaultBanDuration: intPtr(14)}}}
	resolver := NewCategoryResolver(lib, DefaultBanDays, zap.NewNop(), nil)

	student := models.Student{ID: "s1", Category: models.CategoryID("c1")}
	assert.Equal(t, 14, resolver.DefaultBanDays(context.Background(), student))
	assert.Equal(t, 14, resolver.DefaultBanDays(context.Background(), student))
	assert.Equal(t, 1, lib.categoryCalls)

	fork := resolver.Fork()
	assert.Equal(t, 14, fork.DefaultBanDays(context.Background(), student))
	assert.Equal(t, 2, lib.categoryCalls, "a fork does not share the cache")
}

func TestResolverEmbeddedWithoutDurationFetches(t *testing.T) {
	lib := &mockLibrary{categories: map[string]models.Category{"c1": {ID: "c1", DefaultBanDuration: intPtr(3)}}}
	resolver := NewCategoryResolver(lib, DefaultBanDays, zap.NewNop(), nil)

	student := models.Student{Category: models.EmbeddedCategory(models.Category{ID: "c1", Name: "Guest"})}
	assert.Equal(t, 3, resolver.DefaultBanDays(context.Background(), student))
}

func TestResolverFallsBackOnNetworkError(t *testing.T) {
	metrics := NewMetricsService()
	lib := &mockLibrary{categoryErr: errNetwork}
	resolver := NewCategoryResolver(lib, DefaultBanDays, zap.NewNop(), metrics)

	days := resolver.DefaultBanDays(context.Background(), models.Student{ID: "s1", Category: models.CategoryID("X")})
	assert.Equal(t, 7, days)
	assert.Equal(t, float64(1), metricValue(t, metrics, "category_resolution_fallbacks_total"))

	// failures are not cached
	resolver.DefaultBanDays(context.Background(), models.Student{ID: "s1", Category: models.CategoryID("X")})
	assert.Equal(t, 2, lib.categoryCalls)
}

func TestResolverWithoutCategory(t *testing.T) {
	lib := &mockLibrary{}
	resolver := NewCategoryResolver(lib, -1, nil, nil)
	assert.Equal(t, DefaultBanDays, resolver.DefaultBanDays(context.Background(), models.Student{ID: "s1"}))
	assert.Empty(t, lib.calls)
}
