package repository

import (
	"context"
	"testing"
	"time"

	"oncestock/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailoverSwitchesToMemory(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	logger := zerolog.Nop()
	primary := NewRedisCacheRepository(client, time.Minute)
	fallback := NewMemoryCacheRepository(time.Minute)
	repo := NewFailoverCacheRepository(primary, fallback, &logger)

	ctx := context.Background()

	// Healthy primary serves reads and writes.
	require.NoError(t, repo.SetProduct(ctx, &models.Product{Code: "94319699", Name: "billy"}))
	cached, err := repo.GetProduct(ctx, "94319699")
	require.NoError(t, err)
	require.NotNil(t, cached)

	// Kill redis; the repository must keep answering from memory.
	s.Close()

	require.NoError(t, repo.SetProduct(ctx, &models.Product{Code: "56070724", Name: "evan"}))

	cached, err = repo.GetProduct(ctx, "56070724")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "evan", cached.Name)

	allowed, err := repo.CheckRateLimit(ctx, "terminal-1", 5, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestFailoverInvalidateKeepsTiersCoherent(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	logger := zerolog.Nop()
	fallback := NewMemoryCacheRepository(time.Minute)
	repo := NewFailoverCacheRepository(NewRedisCacheRepository(client, time.Minute), fallback, &logger)

	ctx := context.Background()

	// Seed the fallback directly to simulate a stale copy left behind.
	require.NoError(t, fallback.SetProduct(ctx, &models.Product{Code: "X1", Name: "stale"}))
	require.NoError(t, repo.SetProduct(ctx, &models.Product{Code: "X1", Name: "fresh"}))

	require.NoError(t, repo.InvalidateProduct(ctx, "X1"))

	leftover, err := fallback.GetProduct(ctx, "X1")
	require.NoError(t, err)
	assert.Nil(t, leftover)
}
