package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/fee-quotation-service/internal/domain"
	"github.com/jsamuelsen/fee-quotation-service/internal/mocks"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()

	mr := miniredis.RunT(t)
	c := NewRedisCacheWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test:")
	t.Cleanup(func() { _ = c.Close() })

	return mr, c
}

func TestRedisCache_GetSetDelete(t *testing.T) {
	mr, c := newRedis(t)
	ctx := context.Background()

	_, err := c.Get(ctx, "k")
	assert.True(t, domain.IsNotFound(err))

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	assert.True(t, mr.Exists("test:k"), "keys are prefixed")

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	mr.FastForward(2 * time.Minute)

	_, err = c.Get(ctx, "k")
	assert.True(t, domain.IsNotFound(err), "entry expires")

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, c.Delete(ctx, "k"))
	require.NoError(t, c.Delete(ctx, "k"))

	_, err = c.Get(ctx, "k")
	assert.True(t, domain.IsNotFound(err))
}

func TestRedisCache_Health(t *testing.T) {
	mr, c := newRedis(t)

	assert.Equal(t, "redis", c.Name())
	assert.True(t, c.Optional())
	assert.NoError(t, c.Check(context.Background()))

	mr.Close()

	assert.Error(t, c.Check(context.Background()))

	_, err := c.Get(context.Background(), "k")
	assert.True(t, domain.IsUnavailable(err))
}

func TestNewRedisCache_InvalidURL(t *testing.T) {
	_, err := NewRedisCache(Config{URL: "http://nope"})
	assert.Error(t, err)
}

func testConfiguration() *domain.QuotationConfiguration {
	cfg := domain.NewQuotationConfiguration(1)
	cfg.IsEnabled = true
	cfg.APIURL = "https://billing.example/quotes"
	cfg.SelectedSections = []int64{3}
	cfg.CreatedAt = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	cfg.UpdatedAt = cfg.CreatedAt

	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestConfigurationRepository_ReadThrough(t *testing.T) {
	_, c := newRedis(t)
	next := mocks.NewMockConfigurationRepository(t)
	repo := NewConfigurationRepository(next, c, time.Minute, discardLogger())
	ctx := context.Background()

	stored := testConfiguration()
	next.EXPECT().ConfigFor(mock.Anything, int64(1)).Return(stored, nil).Once()

	first, err := repo.ConfigFor(ctx, 1)
	require.NoError(t, err)

	second, err := repo.ConfigFor(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, first.APIURL, second.APIURL)
	assert.Equal(t, []int64{3}, second.SelectedSections)
	assert.True(t, stored.CreatedAt.Equal(second.CreatedAt))
}

func TestConfigurationRepository_MissIsNotCached(t *testing.T) {
	_, c := newRedis(t)
	next := mocks.NewMockConfigurationRepository(t)
	repo := NewConfigurationRepository(next, c, 0, discardLogger())

	next.EXPECT().ConfigFor(mock.Anything, int64(2)).
		Return(nil, domain.NewNotFoundError("configuration", "2")).Twice()

	for range 2 {
		_, err := repo.ConfigFor(context.Background(), 2)
		assert.True(t, domain.IsNotFound(err))
	}
}

func TestConfigurationRepository_SaveInvalidates(t *testing.T) {
	mr, c := newRedis(t)
	next := mocks.NewMockConfigurationRepository(t)
	repo := NewConfigurationRepository(next, c, time.Minute, discardLogger())
	ctx := context.Background()

	cfg := testConfiguration()
	next.EXPECT().ConfigFor(mock.Anything, int64(1)).Return(cfg, nil).Twice()
	next.EXPECT().Save(mock.Anything, cfg).Return(nil).Once()

	_, err := repo.ConfigFor(ctx, 1)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:"+configKey(1)))

	require.NoError(t, repo.Save(ctx, cfg))
	assert.False(t, mr.Exists("test:"+configKey(1)))

	_, err = repo.ConfigFor(ctx, 1)
	require.NoError(t, err)
}

func TestConfigurationRepository_CacheDownFallsThrough(t *testing.T) {
	mr, c := newRedis(t)
	next := mocks.NewMockConfigurationRepository(t)
	repo := NewConfigurationRepository(next, c, time.Minute, discardLogger())

	mr.Close()

	cfg := testConfiguration()
	next.EXPECT().ConfigFor(mock.Anything, int64(1)).Return(cfg, nil)
	next.EXPECT().Save(mock.Anything, cfg).Return(nil)

	got, err := repo.ConfigFor(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)

	assert.NoError(t, repo.Save(context.Background(), cfg))
}

func TestConfigurationRepository_UndecodableEntry(t *testing.T) {
	mr, c := newRedis(t)
	next := mocks.NewMockConfigurationRepository(t)
	repo := NewConfigurationRepository(next, c, time.Minute, discardLogger())

	require.NoError(t, mr.Set("test:"+configKey(1), "{not json"))

	next.EXPECT().ConfigFor(mock.Anything, int64(1)).Return(testConfiguration(), nil).Once()

	got, err := repo.ConfigFor(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, got.IsEnabled)
}
