package cache

import (
	"context"
	"testing"
	"time"

	"sports-meetup/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledCache(t *testing.T) {
	c, err := NewRedisCache(config.RedisConfig{Enabled: false})
	require.NoError(t, err)
	assert.False(t, c.Enabled())

	var out []string
	assert.ErrorIs(t, c.Get(context.Background(), PairsKey(), &out), ErrDisabled)
	assert.ErrorIs(t, c.Set(context.Background(), PairsKey(), []string{"x"}, time.Minute), ErrDisabled)
	assert.NoError(t, c.Close())
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "catalog:venues", VenuesKey(""))
	assert.Equal(t, "catalog:venues:squash", VenuesKey("squash"))
	assert.Equal(t, "catalog:pairs", PairsKey())
}
