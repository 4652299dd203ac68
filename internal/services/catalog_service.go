package services

import (
	"context"
	"sort"
	"time"

	"sports-meetup/internal/cache"
	"sports-meetup/internal/models"
	"sports-meetup/internal/repository"
	"sports-meetup/internal/utils"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Cache is the read-through store used for the near-static catalog
type Cache interface {
	Get(ctx context.Context, key string, value interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// NearestVenue is a venue with its distance from the queried point
type NearestVenue struct {
	Venue      models.Venue `json:"venue"`
	DistanceKm float64      `json:"distance_km"`
}

type CatalogService struct {
	repo  *repository.Repository
	cache Cache
	ttl   time.Duration
}

// NewCatalogService creates the catalog. cache may be nil.
func NewCatalogService(repo *repository.Repository, c Cache, ttl time.Duration) *CatalogService {
	return &CatalogService{repo: repo, cache: c, ttl: ttl}
}

// ListSports returns the sports that have at least one allowed venue, in enum
// order. A non-empty venue name restricts the list to that venue.
func (s *CatalogService) ListSports(ctx context.Context, venueName string) ([]models.Sport, error) {
	var venueID *uint
	if venueName != "" {
		venue, err := s.ResolveVenue(ctx, venueName)
		if err != nil {
			return nil, err
		}
		venueID = &venue.ID
	}

	sports, err := s.repo.ListSports(ctx, venueID)
	if err != nil {
		return nil, err
	}

	rank := make(map[models.Sport]int, len(models.Sports))
	for i, sport := range models.Sports {
		rank[sport] = i
	}
	sort.Slice(sports, func(i, j int) bool { return rank[sports[i]] < rank[sports[j]] })

	return sports, nil
}

// ListVenues returns venues ordered by id, optionally only those offering sport
func (s *CatalogService) ListVenues(ctx context.Context, sport models.Sport) ([]models.Venue, error) {
	if sport != "" && !sport.Valid() {
		return nil, ErrUnknownSport
	}

	var venues []models.Venue
	err := s.cached(ctx, cache.VenuesKey(string(sport)), &venues, func() error {
		var err error
		if sport == "" {
			venues, err = s.repo.ListVenues(ctx)
		} else {
			venues, err = s.repo.ListVenuesBySport(ctx, sport)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return venues, nil
}

// ListAllowedPairsGrouped maps each sport to the names of the venues offering it
func (s *CatalogService) ListAllowedPairsGrouped(ctx context.Context) (map[models.Sport][]string, error) {
	grouped := make(map[models.Sport][]string)
	err := s.cached(ctx, cache.PairsKey(), &grouped, func() error {
		rows, err := s.repo.ListAllowedPairs(ctx)
		if err != nil {
			return err
		}
		grouped = make(map[models.Sport][]string)
		for _, row := range rows {
			grouped[row.Sport] = append(grouped[row.Sport], row.VenueName)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return grouped, nil
}

// NearestVenue finds the closest venue to lat/lon. With a sport only venues
// offering it are candidates.
func (s *CatalogService) NearestVenue(ctx context.Context, lat, lon float64, sport models.Sport) (*NearestVenue, error) {
	if !utils.ValidCoordinate(lat, lon) {
		return nil, ErrInvalidLocation
	}

	var candidates []models.Venue
	if sport == "" {
		grouped, err := s.ListAllowedPairsGrouped(ctx)
		if err != nil {
			return nil, err
		}
		offered := make(map[string]bool)
		for _, names := range grouped {
			for _, name := range names {
				offered[name] = true
			}
		}
		venues, err := s.ListVenues(ctx, "")
		if err != nil {
			return nil, err
		}
		for _, v := range venues {
			if offered[v.Name] {
				candidates = append(candidates, v)
			}
		}
	} else {
		var err error
		candidates, err = s.ListVenues(ctx, sport)
		if err != nil {
			return nil, err
		}
	}

	if len(candidates) == 0 {
		return nil, ErrNotFound
	}

	best := NearestVenue{Venue: candidates[0], DistanceKm: utils.HaversineKm(lat, lon, candidates[0].Latitude, candidates[0].Longitude)}
	for _, v := range candidates[1:] {
		d := utils.HaversineKm(lat, lon, v.Latitude, v.Longitude)
		if d < best.DistanceKm {
			best = NearestVenue{Venue: v, DistanceKm: d}
		}
	}
	return &best, nil
}

// ResolveVenue looks a venue up by name
func (s *CatalogService) ResolveVenue(ctx context.Context, name string) (*models.Venue, error) {
	venue, err := s.repo.GetVenueByName(ctx, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnknownVenue
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve venue")
	}
	return venue, nil
}

func (s *CatalogService) cached(ctx context.Context, key string, dst interface{}, load func() error) error {
	if s.cache != nil {
		err := s.cache.Get(ctx, key, dst)
		if err == nil {
			return nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) && !errors.Is(err, cache.ErrDisabled) {
			log.Warn().Err(err).Str("key", key).Msg("Catalog cache read failed")
		}
	}

	if err := load(); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, dst, s.ttl); err != nil && !errors.Is(err, cache.ErrDisabled) {
			log.Warn().Err(err).Str("key", key).Msg("Catalog cache write failed")
		}
	}
	return nil
}
