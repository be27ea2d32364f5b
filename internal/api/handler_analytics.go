package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fleetcheck-backend/internal/analytics"
)

// GetFleetAnalytics handles GET /api/analytics/fleet. Optional start/end
// query parameters (YYYY-MM-DD, inclusive) bound the report by calendar date
// in the reference time zone.
func (h *Handler) GetFleetAnalytics(c *gin.Context) {
	dateRange, err := h.parseDateRange(c.Query("start"), c.Query("end"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records, err := h.store.Checklists(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	vehicles, err := h.store.Vehicles(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	filtered := analytics.FilterByDate(records, dateRange, h.loc)
	c.JSON(http.StatusOK, analytics.Summarize(filtered, vehicles, h.loc))
}

func (h *Handler) parseDateRange(start, end string) (analytics.DateRange, error) {
	var r analytics.DateRange
	if start != "" {
		t, err := time.ParseInLocation("2006-01-02", start, h.loc)
		if err != nil {
			return r, &badDateError{param: "start", value: start}
		}
		r.Start = &t
	}
	if end != "" {
		t, err := time.ParseInLocation("2006-01-02", end, h.loc)
		if err != nil {
			return r, &badDateError{param: "end", value: end}
		}
		r.End = &t
	}
	return r, nil
}

type badDateError struct {
	param string
	value string
}

func (e *badDateError) Error() string {
	return "invalid " + e.param + " date " + e.value + ", expected YYYY-MM-DD"
}
