package services

import (
	"context"
	"testing"
	"time"

	"sports-meetup/internal/models"
	"sports-meetup/internal/repository"
	"sports-meetup/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type eventFixture struct {
	db      *gorm.DB
	repo    *repository.Repository
	catalog *CatalogService
	events  *EventService
	chat    *ChatService
}

func setupServices(t *testing.T) *eventFixture {
	t.Helper()

	db := testutil.NewDB(t)
	repo := repository.NewRepository(db)
	catalog := NewCatalogService(repo, nil, time.Minute)
	return &eventFixture{
		db:      db,
		repo:    repo,
		catalog: catalog,
		events:  NewEventService(repo, catalog, "TownPass"),
		chat:    NewChatService(repo, "TownPass"),
	}
}

func (f *eventFixture) input(t *testing.T, venue string, sport models.Sport, start time.Time, capacity int) CreateEventInput {
	t.Helper()
	return CreateEventInput{
		OrganizerID: uuid.New(),
		VenueID:     testutil.VenueID(t, f.db, venue),
		Sport:       sport,
		Start:       start,
		End:         start.Add(time.Hour),
		Capacity:    capacity,
	}
}

func TestCreateEventValidation(t *testing.T) {
	f := setupServices(t)
	ctx := context.Background()
	start := time.Now().Add(24 * time.Hour)

	tests := []struct {
		name   string
		modify func(in *CreateEventInput)
		want   error
	}{
		{"capacity one", func(in *CreateEventInput) { in.Capacity = 1 }, ErrInvalidCapacity},
		{"capacity over limit", func(in *CreateEventInput) { in.Capacity = 101 }, ErrInvalidCapacity},
		{"end before start", func(in *CreateEventInput) { in.End = in.Start.Add(-time.Minute) }, ErrInvalidWindow},
		{"empty window", func(in *CreateEventInput) { in.End = in.Start }, ErrInvalidWindow},
		{"unknown sport", func(in *CreateEventInput) { in.Sport = "curling" }, ErrUnknownSport},
		{"sport not offered", func(in *CreateEventInput) { in.Sport = models.SportGolf }, ErrInvalidPairing},
		{"unknown venue", func(in *CreateEventInput) { in.VenueID = 9999 }, ErrInvalidPairing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := f.input(t, "Daan", models.SportBadminton, start, 4)
			tt.modify(&in)

			_, err := f.events.CreateEvent(ctx, in)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsValidationError(err))
		})
	}

	var count int64
	require.NoError(t, f.db.Model(&models.Event{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateEventOpensChannel(t *testing.T) {
	f := setupServices(t)
	ctx := context.Background()

	in := f.input(t, "Daan", models.SportBadminton, time.Now().Add(time.Hour), 100)
	event, err := f.events.CreateEvent(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusOpen, event.Status)

	channel, err := f.repo.GetChatChannel(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, ChannelTopic("TownPass", event.ID), channel.Name)

	_, err = f.events.CreateEvent(ctx, in)
	assert.ErrorIs(t, err, ErrDuplicateSlot)
	assert.False(t, IsValidationError(err))
}

func TestJoinLeaveThroughService(t *testing.T) {
	f := setupServices(t)
	ctx := context.Background()

	event, err := f.events.CreateEvent(ctx, f.input(t, "Neihu", models.SportSquash, time.Now().Add(time.Hour), 2))
	require.NoError(t, err)

	u2, u3 := uuid.New(), uuid.New()

	result, err := f.events.JoinEvent(ctx, event.ID, u2)
	require.NoError(t, err)
	assert.Equal(t, models.JoinResultJoined, result)

	result, err = f.events.JoinEvent(ctx, event.ID, u3)
	require.NoError(t, err)
	assert.Equal(t, models.JoinResultFull, result)

	left, err := f.events.LeaveEvent(ctx, event.ID, u2)
	require.NoError(t, err)
	assert.True(t, left)

	result, err = f.events.JoinEvent(ctx, event.ID, u3)
	require.NoError(t, err)
	assert.Equal(t, models.JoinResultJoined, result)

	require.NoError(t, f.events.CloseRegistration(ctx, event.ID))
	result, err = f.events.JoinEvent(ctx, uuid.New(), u2)
	require.NoError(t, err)
	assert.Equal(t, models.JoinResultNotFound, result)
	result, err = f.events.JoinEvent(ctx, event.ID, u2)
	require.NoError(t, err)
	assert.Equal(t, models.JoinResultClosed, result)

	require.NoError(t, f.events.CancelEvent(ctx, event.ID))
	_, err = f.events.GetEvent(ctx, event.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)
	assert.ErrorIs(t, f.events.CancelEvent(ctx, event.ID), ErrEventNotFound)
}

func TestListActiveEventsSweepsFirst(t *testing.T) {
	f := setupServices(t)
	ctx := context.Background()
	now := time.Now().UTC()

	soon, err := f.events.CreateEvent(ctx, f.input(t, "Daan", models.SportBadminton, now.Add(time.Hour), 4))
	require.NoError(t, err)
	later, err := f.events.CreateEvent(ctx, f.input(t, "Xinyi", models.SportSquash, now.Add(10*time.Hour), 4))
	require.NoError(t, err)

	events, err := f.events.ListActiveEvents(ctx, EventQuery{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, soon.ID, events[0].ID)
	assert.Equal(t, later.ID, events[1].ID)

	// move the clock past the first event's end
	f.events.SetClock(func() time.Time { return now.Add(3 * time.Hour) })

	events, err = f.events.ListActiveEvents(ctx, EventQuery{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, later.ID, events[0].ID)

	_, err = f.events.GetEvent(ctx, soon.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestCreatedEventIsListedWithItsFields(t *testing.T) {
	f := setupServices(t)
	ctx := context.Background()

	start := time.Date(2031, 5, 4, 18, 30, 0, 0, time.UTC)
	in := f.input(t, "Xinyi", models.SportSquash, start, 6)
	created, err := f.events.CreateEvent(ctx, in)
	require.NoError(t, err)

	events, err := f.events.ListActiveEvents(ctx, EventQuery{})
	require.NoError(t, err)
	require.Len(t, events, 1)

	listed := events[0]
	assert.Equal(t, created.ID, listed.ID)
	assert.Equal(t, in.OrganizerID, listed.OrganizerID)
	assert.Equal(t, models.SportSquash, listed.Sport)
	assert.Equal(t, in.VenueID, listed.VenueID)
	require.NotNil(t, listed.Venue)
	assert.Equal(t, "Xinyi", listed.Venue.Name)
	assert.Equal(t, 6, listed.Capacity)
	assert.Equal(t, models.EventStatusOpen, listed.Status)
	assert.True(t, start.Equal(listed.StartTime), "start %s", listed.StartTime)
	assert.True(t, start.Add(time.Hour).Equal(listed.EndTime), "end %s", listed.EndTime)
}

func TestListActiveEventsFilters(t *testing.T) {
	f := setupServices(t)
	ctx := context.Background()
	now := time.Now()

	daan, err := f.events.CreateEvent(ctx, f.input(t, "Daan", models.SportBasketball, now.Add(time.Hour), 4))
	require.NoError(t, err)
	xinyi, err := f.events.CreateEvent(ctx, f.input(t, "Xinyi", models.SportBasketball, now.Add(5*time.Hour), 4))
	require.NoError(t, err)

	events, err := f.events.ListActiveEvents(ctx, EventQuery{VenueName: "Xinyi"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, xinyi.ID, events[0].ID)

	events, err = f.events.ListActiveEvents(ctx, EventQuery{Sport: models.SportBasketball})
	require.NoError(t, err)
	assert.Len(t, events, 2)

	after := now.Add(2 * time.Hour)
	events, err = f.events.ListActiveEvents(ctx, EventQuery{StartAfter: &after})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, xinyi.ID, events[0].ID)

	require.NoError(t, f.events.CloseRegistration(ctx, daan.ID))
	events, err = f.events.ListActiveEvents(ctx, EventQuery{})
	require.NoError(t, err)
	assert.Len(t, events, 1)

	_, err = f.events.ListActiveEvents(ctx, EventQuery{VenueName: "Atlantis"})
	assert.ErrorIs(t, err, ErrUnknownVenue)
	_, err = f.events.ListActiveEvents(ctx, EventQuery{Sport: "curling"})
	assert.ErrorIs(t, err, ErrUnknownSport)
}

func TestListUserEvents(t *testing.T) {
	f := setupServices(t)
	ctx := context.Background()
	now := time.Now()

	in := f.input(t, "Daan", models.SportTableTennis, now.Add(2*time.Hour), 4)
	organized, err := f.events.CreateEvent(ctx, in)
	require.NoError(t, err)

	other, err := f.events.CreateEvent(ctx, f.input(t, "Beitou", models.SportTableTennis, now.Add(time.Hour), 4))
	require.NoError(t, err)
	_, err = f.events.CreateEvent(ctx, f.input(t, "Wanhua", models.SportGolf, now.Add(3*time.Hour), 4))
	require.NoError(t, err)

	result, err := f.events.JoinEvent(ctx, other.ID, in.OrganizerID)
	require.NoError(t, err)
	require.Equal(t, models.JoinResultJoined, result)

	events, err := f.events.ListUserEvents(ctx, in.OrganizerID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, other.ID, events[0].ID)
	assert.Equal(t, organized.ID, events[1].ID)

	events, err = f.events.ListUserEvents(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, events)
}
