package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fleetcheck-backend/internal/checklist"
	"fleetcheck-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store      store.Store
	checklists *checklist.Service
	loc        *time.Location
}

// NewHandler creates a new API handler. loc is the reference time zone for
// analytics date filtering.
func NewHandler(s store.Store, checklists *checklist.Service, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		store:      s,
		checklists: checklists,
		loc:        loc,
	}
}

// abortWithError maps the error taxonomy onto HTTP statuses: conflicts 409,
// validation 400, missing resources 404.
func abortWithError(c *gin.Context, err error) {
	var verr *checklist.ValidationError
	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, store.ErrVehicleInUse):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotOpen):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
