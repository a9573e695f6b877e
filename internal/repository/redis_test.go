package repository

import (
	"context"
	"testing"
	"time"

	"oncestock/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisRepo(t *testing.T) (*RedisCacheRepository, *miniredis.Miniredis) {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisCacheRepository(client, time.Minute), s
}

func TestRedisProductCache(t *testing.T) {
	repo, _ := setupRedisRepo(t)
	ctx := context.Background()

	// Miss returns nil, nil.
	product, err := repo.GetProduct(ctx, "94319699")
	require.NoError(t, err)
	assert.Nil(t, product)

	stored := &models.Product{ID: 1, Code: "94319699", Name: "billy", Price: 1600, Stock: 40}
	require.NoError(t, repo.SetProduct(ctx, stored))

	cached, err := repo.GetProduct(ctx, "94319699")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "billy", cached.Name)
	assert.Equal(t, int64(40), cached.Stock)

	require.NoError(t, repo.InvalidateProduct(ctx, "94319699"))

	cached, err = repo.GetProduct(ctx, "94319699")
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestRedisProductCacheTTL(t *testing.T) {
	repo, s := setupRedisRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SetProduct(ctx, &models.Product{Code: "X1", Name: "expiring"}))

	s.FastForward(2 * time.Minute)

	product, err := repo.GetProduct(ctx, "X1")
	require.NoError(t, err)
	assert.Nil(t, product)
}

func TestRedisCheckRateLimit(t *testing.T) {
	repo, s := setupRedisRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := repo.CheckRateLimit(ctx, "terminal-1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := repo.CheckRateLimit(ctx, "terminal-1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	// Other clients have their own budget.
	allowed, err = repo.CheckRateLimit(ctx, "terminal-2", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	// The window resets the counter.
	s.FastForward(2 * time.Minute)
	allowed, err = repo.CheckRateLimit(ctx, "terminal-1", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}
