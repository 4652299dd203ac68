package handlers

import (
	"net/http"
	"time"

	"sports-meetup/internal/models"
	"sports-meetup/internal/services"

	"github.com/gin-gonic/gin"
)

type RecordHandler struct {
	events *services.EventService
}

func NewRecordHandler(events *services.EventService) *RecordHandler {
	return &RecordHandler{events: events}
}

type createRecordRequest struct {
	UserID    string       `json:"user_id" binding:"required"`
	PlaceID   uint         `json:"place_id" binding:"required"`
	Sport     models.Sport `json:"sport" binding:"required"`
	StartTime time.Time    `json:"start_time" binding:"required"`
	EndTime   time.Time    `json:"end_time" binding:"required"`
	Capacity  int          `json:"capacity" binding:"required"`
}

// CreateRecord creates an event with the caller as organizer
// POST /api/record
func (h *RecordHandler) CreateRecord(c *gin.Context) {
	var req createRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	organizerID, ok := parseUUIDParam(c, req.UserID, "user_id")
	if !ok {
		return
	}

	event, err := h.events.CreateEvent(c.Request.Context(), services.CreateEventInput{
		OrganizerID: organizerID,
		VenueID:     req.PlaceID,
		Sport:       req.Sport,
		Start:       req.StartTime,
		End:         req.EndTime,
		Capacity:    req.Capacity,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"record_id": event.ID, "record": event})
}

// ListAll returns active events, filtered by place name, sport and start time
// GET /api/record/all?place=&sport=&start_time=
func (h *RecordHandler) ListAll(c *gin.Context) {
	q := services.EventQuery{
		VenueName: c.Query("place"),
		Sport:     models.Sport(c.Query("sport")),
	}

	if raw := c.Query("start_time"); raw != "" {
		start, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start_time must be RFC3339"})
			return
		}
		q.StartAfter = &start
	}

	events, err := h.events.ListActiveEvents(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": events, "count": len(events)})
}

// ListUser returns the active events a user takes part in
// GET /api/record/user/:user_id
func (h *RecordHandler) ListUser(c *gin.Context) {
	userID, ok := parseUUIDParam(c, c.Param("user_id"), "user_id")
	if !ok {
		return
	}

	events, err := h.events.ListUserEvents(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": events, "count": len(events)})
}

// GetRecord returns one event with its participants
// GET /api/record/:record_id
func (h *RecordHandler) GetRecord(c *gin.Context) {
	eventID, ok := parseUUIDParam(c, c.Param("record_id"), "record_id")
	if !ok {
		return
	}

	event, err := h.events.GetEvent(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

// Join adds a user to an event
// POST /api/record/join/:record_id?user_id=
func (h *RecordHandler) Join(c *gin.Context) {
	eventID, ok := parseUUIDParam(c, c.Param("record_id"), "record_id")
	if !ok {
		return
	}
	userID, ok := parseUUIDParam(c, c.Query("user_id"), "user_id")
	if !ok {
		return
	}

	result, err := h.events.JoinEvent(c.Request.Context(), eventID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// Leave removes a user from an event
// DELETE /api/record/leave/:record_id?user_id=
func (h *RecordHandler) Leave(c *gin.Context) {
	eventID, ok := parseUUIDParam(c, c.Param("record_id"), "record_id")
	if !ok {
		return
	}
	userID, ok := parseUUIDParam(c, c.Query("user_id"), "user_id")
	if !ok {
		return
	}

	left, err := h.events.LeaveEvent(c.Request.Context(), eventID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"left": left})
}

// Close stops an event from accepting joins
// POST /api/record/close/:record_id
func (h *RecordHandler) Close(c *gin.Context) {
	eventID, ok := parseUUIDParam(c, c.Param("record_id"), "record_id")
	if !ok {
		return
	}

	if err := h.events.CloseRegistration(c.Request.Context(), eventID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Delete cancels an event, removing its participants and chat
// DELETE /api/record/delete/:record_id
func (h *RecordHandler) Delete(c *gin.Context) {
	eventID, ok := parseUUIDParam(c, c.Param("record_id"), "record_id")
	if !ok {
		return
	}

	if err := h.events.CancelEvent(c.Request.Context(), eventID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
