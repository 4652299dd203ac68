package repository

import (
	"context"

	"sports-meetup/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// PairRow is an allowed pair flattened with its venue name
type PairRow struct {
	Sport     models.Sport
	VenueID   uint
	VenueName string
}

// ListVenues returns every venue ordered by id
func (r *Repository) ListVenues(ctx context.Context) ([]models.Venue, error) {
	var venues []models.Venue
	err := r.db.WithContext(ctx).Order("id ASC").Find(&venues).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list venues")
	}
	return venues, nil
}

// ListVenuesBySport returns the venues offering sport, ordered by id
func (r *Repository) ListVenuesBySport(ctx context.Context, sport models.Sport) ([]models.Venue, error) {
	var venues []models.Venue
	err := r.db.WithContext(ctx).
		Joins("JOIN allowed_pairs ON allowed_pairs.venue_id = venues.id").
		Where("allowed_pairs.sport = ?", sport).
		Order("venues.id ASC").
		Find(&venues).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list venues by sport")
	}
	return venues, nil
}

// GetVenueByName retrieves a venue, returning gorm.ErrRecordNotFound when absent
func (r *Repository) GetVenueByName(ctx context.Context, name string) (*models.Venue, error) {
	var venue models.Venue
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&venue).Error; err != nil {
		return nil, err
	}
	return &venue, nil
}

// ListSports returns the distinct sports having at least one allowed pair.
// A non-nil venueID restricts the result to that venue.
func (r *Repository) ListSports(ctx context.Context, venueID *uint) ([]models.Sport, error) {
	query := r.db.WithContext(ctx).Model(&models.AllowedPair{}).Distinct("sport")
	if venueID != nil {
		query = query.Where("venue_id = ?", *venueID)
	}

	var sports []models.Sport
	if err := query.Pluck("sport", &sports).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list sports")
	}
	return sports, nil
}

// ListAllowedPairs returns every pair joined with its venue, ordered by venue name
func (r *Repository) ListAllowedPairs(ctx context.Context) ([]PairRow, error) {
	var rows []PairRow
	err := r.db.WithContext(ctx).
		Model(&models.AllowedPair{}).
		Select("allowed_pairs.sport AS sport, venues.id AS venue_id, venues.name AS venue_name").
		Joins("JOIN venues ON venues.id = allowed_pairs.venue_id").
		Order("venues.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list allowed pairs")
	}
	return rows, nil
}

func pairAllowed(tx *gorm.DB, sport models.Sport, venueID uint) (bool, error) {
	var count int64
	err := tx.Model(&models.AllowedPair{}).
		Where("sport = ? AND venue_id = ?", sport, venueID).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "failed to check allowed pair")
	}
	return count > 0, nil
}
