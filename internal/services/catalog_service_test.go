package services

import (
	"context"
	"testing"
	"time"

	"sports-meetup/internal/cache"
	"sports-meetup/internal/models"
	"sports-meetup/internal/repository"
	"sports-meetup/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key string, value interface{}) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *mockCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func newCatalog(t *testing.T, c Cache) *CatalogService {
	t.Helper()
	return NewCatalogService(repository.NewRepository(testutil.NewDB(t)), c, time.Minute)
}

func venueNames(venues []models.Venue) []string {
	names := make([]string, 0, len(venues))
	for _, v := range venues {
		names = append(names, v.Name)
	}
	return names
}

func TestListSports(t *testing.T) {
	catalog := newCatalog(t, nil)
	ctx := context.Background()

	sports, err := catalog.ListSports(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, models.Sports, sports)

	sports, err = catalog.ListSports(ctx, "Xinyi")
	require.NoError(t, err)
	assert.Equal(t, []models.Sport{
		models.SportBadminton,
		models.SportBasketball,
		models.SportTableTennis,
		models.SportSquash,
	}, sports)

	_, err = catalog.ListSports(ctx, "Atlantis")
	assert.ErrorIs(t, err, ErrUnknownVenue)
}

func TestListVenues(t *testing.T) {
	catalog := newCatalog(t, nil)
	ctx := context.Background()

	all, err := catalog.ListVenues(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 10)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].ID, all[i].ID)
	}

	squash, err := catalog.ListVenues(ctx, models.SportSquash)
	require.NoError(t, err)
	assert.Equal(t, []string{"Neihu", "Daan", "Xinyi"}, venueNames(squash))

	_, err = catalog.ListVenues(ctx, models.Sport("curling"))
	assert.ErrorIs(t, err, ErrUnknownSport)
}

func TestListAllowedPairsGrouped(t *testing.T) {
	catalog := newCatalog(t, nil)

	grouped, err := catalog.ListAllowedPairsGrouped(context.Background())
	require.NoError(t, err)

	assert.Len(t, grouped, len(models.Sports))
	assert.Equal(t, []string{"Wanhua"}, grouped[models.SportGolf])
	assert.Equal(t, []string{"Beitou", "Daan", "Neihu", "Wenshan"}, grouped[models.SportBilliards])
	assert.Len(t, grouped[models.SportBadminton], 10)
}

func TestNearestVenue(t *testing.T) {
	catalog := newCatalog(t, nil)
	ctx := context.Background()

	// a few hundred meters from the Xinyi center
	nearest, err := catalog.NearestVenue(ctx, 25.0330, 121.5654, "")
	require.NoError(t, err)
	assert.Equal(t, "Xinyi", nearest.Venue.Name)
	assert.Less(t, nearest.DistanceKm, 1.0)

	// golf is only offered in Wanhua
	nearest, err = catalog.NearestVenue(ctx, 25.0330, 121.5654, models.SportGolf)
	require.NoError(t, err)
	assert.Equal(t, "Wanhua", nearest.Venue.Name)

	_, err = catalog.NearestVenue(ctx, 95, 121.5, "")
	assert.ErrorIs(t, err, ErrInvalidLocation)

	_, err = catalog.NearestVenue(ctx, 25, 121.5, models.Sport("curling"))
	assert.ErrorIs(t, err, ErrUnknownSport)
}

func TestCatalogReadsThroughCache(t *testing.T) {
	c := new(mockCache)
	catalog := newCatalog(t, c)
	ctx := context.Background()

	c.On("Get", ctx, cache.VenuesKey(""), mock.Anything).Return(cache.ErrCacheMiss).Once()
	c.On("Set", ctx, cache.VenuesKey(""), mock.Anything, time.Minute).Return(nil).Once()

	venues, err := catalog.ListVenues(ctx, "")
	require.NoError(t, err)
	assert.Len(t, venues, 10)
	c.AssertExpectations(t)
}

func TestCatalogServesCacheHit(t *testing.T) {
	c := new(mockCache)
	catalog := newCatalog(t, c)
	ctx := context.Background()

	c.On("Get", ctx, cache.PairsKey(), mock.Anything).
		Run(func(args mock.Arguments) {
			dst := args.Get(2).(*map[models.Sport][]string)
			*dst = map[models.Sport][]string{models.SportGolf: {"Cached"}}
		}).
		Return(nil).Once()

	grouped, err := catalog.ListAllowedPairsGrouped(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[models.Sport][]string{models.SportGolf: {"Cached"}}, grouped)
	c.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCatalogFallsBackWhenCacheDisabled(t *testing.T) {
	c := new(mockCache)
	catalog := newCatalog(t, c)
	ctx := context.Background()

	c.On("Get", ctx, cache.PairsKey(), mock.Anything).Return(cache.ErrDisabled)
	c.On("Set", ctx, cache.PairsKey(), mock.Anything, time.Minute).Return(cache.ErrDisabled)

	grouped, err := catalog.ListAllowedPairsGrouped(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Wanhua"}, grouped[models.SportGolf])
}
