package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-progress-api/internal/dto"
)

func TestCacheServiceRoundTripAndInvalidate(t *testing.T) {
	repo := &memoryCacheRepo{}
	metrics := NewMetricsService()
	cache := NewCacheService(repo, metrics, time.Minute, nil, true)
	ctx := context.Background()

	var out dto.DashboardOverview
	hit, err := cache.Get(ctx, overviewCacheKey("course-1"), &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, overviewCacheKey("course-1"), dto.DashboardOverview{CourseID: "course-1", OnTrack: 3}, 0))
	require.NoError(t, cache.Set(ctx, overviewCacheKey("course-2"), dto.DashboardOverview{CourseID: "course-2"}, 0))

	hit, err = cache.Get(ctx, overviewCacheKey("course-1"), &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 3, out.OnTrack)

	require.NoError(t, cache.Invalidate(ctx, courseCachePattern("course-1")))
	hit, _ = cache.Get(ctx, overviewCacheKey("course-1"), &out)
	assert.False(t, hit)
	hit, _ = cache.Get(ctx, overviewCacheKey("course-2"), &out)
	assert.True(t, hit)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.cacheLookups.WithLabelValues("miss")))
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := &memoryCacheRepo{}
	cache := NewCacheService(repo, nil, time.Minute, nil, false)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "reports:overview:course-1", 1, 0))
	assert.Empty(t, repo.store)
	require.NoError(t, cache.Invalidate(ctx, "reports:*"))
	assert.Empty(t, repo.invalidated)

	var nilCache *CacheService
	hit, err := nilCache.Get(ctx, "k", new(int))
	assert.NoError(t, err)
	assert.False(t, hit)
}
