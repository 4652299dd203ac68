package models

import (
	"time"

	"github.com/google/uuid"
)

type EventStatus string

const (
	EventStatusOpen      EventStatus = "open"
	EventStatusFull      EventStatus = "full"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusClosed    EventStatus = "closed"
)

// Joinable reports whether the event still accepts participants
func (s EventStatus) Joinable() bool {
	return s == EventStatusOpen || s == EventStatusFull
}

// JoinResult is the outcome of a join attempt. Conflicts are values, not errors.
type JoinResult string

const (
	JoinResultJoined        JoinResult = "joined"
	JoinResultAlreadyJoined JoinResult = "already_joined"
	JoinResultFull          JoinResult = "full"
	JoinResultNotFound      JoinResult = "not_found"
	JoinResultClosed        JoinResult = "closed"
)

// Event is a bookable session for one sport at one venue
type Event struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizerID uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:uq_events_slot,priority:1" json:"organizer_id"`
	Organizer   *User       `gorm:"foreignKey:OrganizerID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	StartTime   time.Time   `gorm:"not null;index;uniqueIndex:uq_events_slot,priority:2" json:"start_time"`
	EndTime     time.Time   `gorm:"not null;index" json:"end_time"`
	VenueID     uint        `gorm:"not null;index;uniqueIndex:uq_events_slot,priority:3" json:"venue_id"`
	Venue       *Venue      `gorm:"foreignKey:VenueID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"venue,omitempty"`
	Sport       Sport       `gorm:"type:sport_type;not null;uniqueIndex:uq_events_slot,priority:4" json:"sport"`
	Capacity    int         `gorm:"not null;check:chk_events_capacity,capacity > 1 AND capacity <= 100" json:"capacity"`
	Status      EventStatus `gorm:"type:event_status;not null;index" json:"status"`
	CreatedAt   time.Time   `json:"created_at"`

	Participants []Participant `gorm:"-" json:"participants,omitempty"`
}

func (Event) TableName() string {
	return "events"
}

// Participant is a user counted toward an event's capacity
type Participant struct {
	EventID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"event_id"`
	Event    *Event    `gorm:"foreignKey:EventID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	UserID   uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"user_id"`
	User     *User     `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

func (Participant) TableName() string {
	return "participants"
}
