package handlers

import (
	"net/http"

	"sports-meetup/internal/models"
	"sports-meetup/internal/services"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	catalog *services.CatalogService
}

func NewCatalogHandler(catalog *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListSports returns the sports that can be booked, optionally at one venue
// GET /api/list/sports?place=
func (h *CatalogHandler) ListSports(c *gin.Context) {
	sports, err := h.catalog.ListSports(c.Request.Context(), c.Query("place"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sports": sports})
}

// ListPlaces returns venues, optionally only those offering a sport
// GET /api/list/places?sport=
func (h *CatalogHandler) ListPlaces(c *gin.Context) {
	venues, err := h.catalog.ListVenues(c.Request.Context(), models.Sport(c.Query("sport")))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"places": venues})
}

// ListPairs returns the venue names offering each sport
// GET /api/list/pairs
func (h *CatalogHandler) ListPairs(c *gin.Context) {
	grouped, err := h.catalog.ListAllowedPairsGrouped(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"pairs": grouped})
}

type computeRequest struct {
	UserLocation struct {
		Latitude  *float64 `json:"latitude" binding:"required"`
		Longitude *float64 `json:"longitude" binding:"required"`
	} `json:"user_location" binding:"required"`
	Sport models.Sport `json:"sport"`
}

// Compute finds the nearest venue to the caller
// POST /api/compute
func (h *CatalogHandler) Compute(c *gin.Context) {
	var req computeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	nearest, err := h.catalog.NearestVenue(
		c.Request.Context(),
		*req.UserLocation.Latitude,
		*req.UserLocation.Longitude,
		req.Sport,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, nearest)
}
