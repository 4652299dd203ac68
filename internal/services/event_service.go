package services

import (
	"context"
	"time"

	"sports-meetup/internal/models"
	"sports-meetup/internal/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	MinCapacity = 2
	MaxCapacity = 100
)

// CreateEventInput carries the fields of a new event
type CreateEventInput struct {
	OrganizerID uuid.UUID
	VenueID     uint
	Sport       models.Sport
	Start       time.Time
	End         time.Time
	Capacity    int
}

// EventQuery filters the active-event listing by venue name, sport and earliest start
type EventQuery struct {
	VenueName  string
	Sport      models.Sport
	StartAfter *time.Time
}

type EventService struct {
	repo      *repository.Repository
	catalog   *CatalogService
	namespace string
	now       func() time.Time
}

func NewEventService(repo *repository.Repository, catalog *CatalogService, namespace string) *EventService {
	return &EventService{
		repo:      repo,
		catalog:   catalog,
		namespace: namespace,
		now:       time.Now,
	}
}

// SetClock replaces the time source used by the sweeper
func (s *EventService) SetClock(now func() time.Time) {
	s.now = now
}

// CreateEvent validates and stores a new event with its organizer as the first
// participant and its chat channel opened.
func (s *EventService) CreateEvent(ctx context.Context, in CreateEventInput) (*models.Event, error) {
	if in.Capacity < MinCapacity || in.Capacity > MaxCapacity {
		return nil, ErrInvalidCapacity
	}
	if !in.Start.Before(in.End) {
		return nil, ErrInvalidWindow
	}
	if !in.Sport.Valid() {
		return nil, ErrUnknownSport
	}

	event := &models.Event{
		ID:          uuid.New(),
		OrganizerID: in.OrganizerID,
		VenueID:     in.VenueID,
		Sport:       in.Sport,
		StartTime:   in.Start.UTC(),
		EndTime:     in.End.UTC(),
		Capacity:    in.Capacity,
		Status:      models.EventStatusOpen,
	}

	err := s.repo.CreateEvent(ctx, event, ChannelTopic(s.namespace, event.ID))
	if errors.Is(err, repository.ErrPairNotAllowed) {
		return nil, ErrInvalidPairing
	}
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("event_id", event.ID.String()).
		Str("sport", string(event.Sport)).
		Uint("venue_id", event.VenueID).
		Msg("Event created")

	return event, nil
}

// JoinEvent adds a user to an event. Conflicts come back as results.
func (s *EventService) JoinEvent(ctx context.Context, eventID, userID uuid.UUID) (models.JoinResult, error) {
	result, err := s.repo.JoinEvent(ctx, eventID, userID)
	if err != nil {
		return "", err
	}

	log.Debug().
		Str("event_id", eventID.String()).
		Str("user_id", userID.String()).
		Str("result", string(result)).
		Msg("Join processed")

	return result, nil
}

// LeaveEvent removes a user from an event and reports whether they were a member
func (s *EventService) LeaveEvent(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	return s.repo.LeaveEvent(ctx, eventID, userID)
}

// CloseRegistration stops an event from accepting joins
func (s *EventService) CloseRegistration(ctx context.Context, eventID uuid.UUID) error {
	return s.repo.CloseEvent(ctx, eventID)
}

// CancelEvent deletes an event together with its participants and chat
func (s *EventService) CancelEvent(ctx context.Context, eventID uuid.UUID) error {
	if err := s.repo.DeleteEvent(ctx, eventID); err != nil {
		return err
	}
	log.Info().Str("event_id", eventID.String()).Msg("Event cancelled")
	return nil
}

// ListActiveEvents sweeps expired events, then lists the remaining joinable ones
func (s *EventService) ListActiveEvents(ctx context.Context, q EventQuery) ([]models.Event, error) {
	filter := repository.EventFilter{StartAfter: q.StartAfter}

	if q.VenueName != "" {
		venue, err := s.catalog.ResolveVenue(ctx, q.VenueName)
		if err != nil {
			return nil, err
		}
		filter.VenueID = &venue.ID
	}
	if q.Sport != "" {
		if !q.Sport.Valid() {
			return nil, ErrUnknownSport
		}
		filter.Sport = q.Sport
	}
	if filter.StartAfter != nil {
		t := filter.StartAfter.UTC()
		filter.StartAfter = &t
	}

	if err := s.sweep(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListActiveEvents(ctx, filter)
}

// ListUserEvents sweeps expired events, then lists the user's joinable ones
func (s *EventService) ListUserEvents(ctx context.Context, userID uuid.UUID) ([]models.Event, error) {
	if err := s.sweep(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListActiveEvents(ctx, repository.EventFilter{UserID: &userID})
}

// GetEvent returns one event with its participants
func (s *EventService) GetEvent(ctx context.Context, eventID uuid.UUID) (*models.Event, error) {
	return s.repo.GetEvent(ctx, eventID)
}

func (s *EventService) sweep(ctx context.Context) error {
	removed, err := s.repo.SweepExpired(ctx, s.now().UTC())
	if err != nil {
		return err
	}
	if removed > 0 {
		log.Info().Int64("removed", removed).Msg("Swept expired events")
	}
	return nil
}

// ChannelTopic is the bus topic of an event's chat channel
func ChannelTopic(namespace string, eventID uuid.UUID) string {
	return namespace + "/" + eventID.String()
}
