package repository

import (
	"context"
	"time"

	"sports-meetup/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EventFilter narrows an active-event listing. Zero values mean no filter.
type EventFilter struct {
	VenueID    *uint
	Sport      models.Sport
	StartAfter *time.Time
	UserID     *uuid.UUID
}

// CreateEvent stores event with its organizer as first participant and opens the
// event's chat channel, all in one transaction.
func (r *Repository) CreateEvent(ctx context.Context, event *models.Event, channelName string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsertUser(tx, event.OrganizerID); err != nil {
			return err
		}

		ok, err := pairAllowed(tx, event.Sport, event.VenueID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrPairNotAllowed
		}

		var dup int64
		err = tx.Model(&models.Event{}).
			Where("organizer_id = ? AND start_time = ? AND venue_id = ? AND sport = ?",
				event.OrganizerID, event.StartTime, event.VenueID, event.Sport).
			Count(&dup).Error
		if err != nil {
			return errors.Wrap(err, "failed to check slot")
		}
		if dup > 0 {
			return ErrDuplicateSlot
		}

		event.Status = models.EventStatusOpen
		if err := tx.Create(event).Error; err != nil {
			return err
		}

		organizer := models.Participant{EventID: event.ID, UserID: event.OrganizerID}
		if err := tx.Create(&organizer).Error; err != nil {
			return errors.Wrap(err, "failed to add organizer")
		}

		if err := reconcileStatus(tx, event); err != nil {
			return err
		}

		channel := models.ChatChannel{EventID: event.ID, Name: channelName, IsActive: true}
		if err := tx.Create(&channel).Error; err != nil {
			return errors.Wrap(err, "failed to open chat channel")
		}
		return nil
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateSlot
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrPairNotAllowed
	case errors.Is(err, ErrPairNotAllowed), errors.Is(err, ErrDuplicateSlot):
		return err
	default:
		return errors.Wrap(err, "failed to create event")
	}
}

// JoinEvent adds userID to the event. The event row stays locked for the whole
// transaction so concurrent joins on one event are serialized.
func (r *Repository) JoinEvent(ctx context.Context, eventID, userID uuid.UUID) (models.JoinResult, error) {
	var result models.JoinResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsertUser(tx, userID); err != nil {
			return err
		}

		event, err := lockEvent(tx, eventID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			result = models.JoinResultNotFound
			return nil
		}
		if err != nil {
			return err
		}

		if !event.Status.Joinable() {
			result = models.JoinResultClosed
			return nil
		}

		member, err := isParticipant(tx, eventID, userID)
		if err != nil {
			return err
		}
		if member {
			result = models.JoinResultAlreadyJoined
			return nil
		}

		count, err := countParticipants(tx, eventID)
		if err != nil {
			return err
		}
		if count >= int64(event.Capacity) {
			result = models.JoinResultFull
			return reconcileStatus(tx, event)
		}

		participant := models.Participant{EventID: eventID, UserID: userID}
		if err := tx.Create(&participant).Error; err != nil {
			return errors.Wrap(err, "failed to add participant")
		}

		result = models.JoinResultJoined
		return reconcileStatus(tx, event)
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to join event")
	}

	return result, nil
}

// LeaveEvent removes userID from the event. It reports false when the user was
// not a participant, in which case nothing changes.
func (r *Repository) LeaveEvent(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	var left bool

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event, err := lockEvent(tx, eventID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		res := tx.Where("event_id = ? AND user_id = ?", eventID, userID).Delete(&models.Participant{})
		if res.Error != nil {
			return errors.Wrap(res.Error, "failed to remove participant")
		}
		if res.RowsAffected == 0 {
			return nil
		}

		left = true
		return reconcileStatus(tx, event)
	})
	if err != nil {
		return false, errors.Wrap(err, "failed to leave event")
	}

	return left, nil
}

// CloseEvent marks the event closed. Closed events accept no further joins.
func (r *Repository) CloseEvent(ctx context.Context, eventID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event, err := lockEvent(tx, eventID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEventNotFound
		}
		if err != nil {
			return errors.Wrap(err, "failed to close event")
		}
		return setStatus(tx, event, models.EventStatusClosed)
	})
}

// DeleteEvent removes the event row. Participants, the chat channel and its
// messages go with it through cascading foreign keys.
func (r *Repository) DeleteEvent(ctx context.Context, eventID uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", eventID).Delete(&models.Event{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "failed to delete event")
	}
	if res.RowsAffected == 0 {
		return ErrEventNotFound
	}
	return nil
}

// SweepExpired deletes every event whose end time is at or before now
func (r *Repository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("end_time <= ?", now).Delete(&models.Event{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "failed to sweep expired events")
	}
	return res.RowsAffected, nil
}

// ListActiveEvents returns open and full events ordered by start time
func (r *Repository) ListActiveEvents(ctx context.Context, filter EventFilter) ([]models.Event, error) {
	query := r.db.WithContext(ctx).
		Preload("Venue").
		Where("status IN ?", []models.EventStatus{models.EventStatusOpen, models.EventStatusFull})

	if filter.VenueID != nil {
		query = query.Where("venue_id = ?", *filter.VenueID)
	}
	if filter.Sport != "" {
		query = query.Where("sport = ?", filter.Sport)
	}
	if filter.StartAfter != nil {
		query = query.Where("start_time >= ?", *filter.StartAfter)
	}
	if filter.UserID != nil {
		members := r.db.Model(&models.Participant{}).Select("event_id").Where("user_id = ?", *filter.UserID)
		query = query.Where("id IN (?)", members)
	}

	var events []models.Event
	if err := query.Order("start_time ASC").Find(&events).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list events")
	}
	return events, nil
}

// GetEvent retrieves an event with its venue and participants
func (r *Repository) GetEvent(ctx context.Context, eventID uuid.UUID) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).Preload("Venue").Where("id = ?", eventID).First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get event")
	}

	err = r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("joined_at ASC").
		Find(&event.Participants).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to load participants")
	}

	return &event, nil
}

// CountParticipants returns the live participant count of an event
func (r *Repository) CountParticipants(ctx context.Context, eventID uuid.UUID) (int64, error) {
	return countParticipants(r.db.WithContext(ctx), eventID)
}

func upsertUser(tx *gorm.DB, id uuid.UUID) error {
	err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.User{ID: id}).Error
	if err != nil {
		return errors.Wrap(err, "failed to upsert user")
	}
	return nil
}

func lockEvent(tx *gorm.DB, eventID uuid.UUID) (*models.Event, error) {
	var event models.Event
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", eventID).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func isParticipant(tx *gorm.DB, eventID, userID uuid.UUID) (bool, error) {
	var count int64
	err := tx.Model(&models.Participant{}).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "failed to check membership")
	}
	return count > 0, nil
}

func countParticipants(tx *gorm.DB, eventID uuid.UUID) (int64, error) {
	var count int64
	err := tx.Model(&models.Participant{}).Where("event_id = ?", eventID).Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count participants")
	}
	return count, nil
}

// reconcileStatus recomputes open/full from the live count. Terminal statuses
// are left alone.
func reconcileStatus(tx *gorm.DB, event *models.Event) error {
	if !event.Status.Joinable() {
		return nil
	}

	count, err := countParticipants(tx, event.ID)
	if err != nil {
		return err
	}

	want := models.EventStatusOpen
	if count >= int64(event.Capacity) {
		want = models.EventStatusFull
	}
	return setStatus(tx, event, want)
}

func setStatus(tx *gorm.DB, event *models.Event, status models.EventStatus) error {
	if event.Status == status {
		return nil
	}
	err := tx.Model(&models.Event{}).Where("id = ?", event.ID).Update("status", status).Error
	if err != nil {
		return errors.Wrap(err, "failed to update event status")
	}
	event.Status = status
	return nil
}
