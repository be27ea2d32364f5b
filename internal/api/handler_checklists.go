package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fleetcheck-backend/internal/checklist"
	"fleetcheck-backend/internal/model"
	"fleetcheck-backend/internal/template"
)

// exitRequest is the payload of the exit operation. Mileage binds through a
// JSON number, so non-numeric input fails at binding time.
type exitRequest struct {
	VehicleID       int64          `json:"vehicleId" binding:"required"`
	UserID          int64          `json:"userId" binding:"required"`
	KmInitial       *float64       `json:"kmInitial" binding:"required"`
	FuelLevelStart  string         `json:"fuelLevelStart" binding:"required"`
	StartDate       time.Time      `json:"startDate" binding:"required"`
	InspectionStart map[string]any `json:"inspectionStart"`
}

// returnRequest is the payload of the return operation.
type returnRequest struct {
	KmFinal       *float64       `json:"kmFinal" binding:"required"`
	FuelLevelEnd  string         `json:"fuelLevelEnd" binding:"required"`
	EndDate       time.Time      `json:"endDate" binding:"required"`
	InspectionEnd map[string]any `json:"inspectionEnd"`
}

// checklistResponse pairs a record with the item set it resolves to.
type checklistResponse struct {
	model.ChecklistRecord
	Items  []model.TemplateItem `json:"items"`
	Groups []template.Group     `json:"groups"`
	Source string               `json:"source"`
}

// PostExit handles POST /api/checklists: a vehicle leaving the yard.
func (h *Handler) PostExit(c *gin.Context) {
	var req exitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	rec, err := h.checklists.Exit(c.Request.Context(), checklist.ExitRequest{
		VehicleID:       req.VehicleID,
		UserID:          req.UserID,
		KmInitial:       *req.KmInitial,
		FuelLevelStart:  req.FuelLevelStart,
		StartDate:       req.StartDate,
		InspectionStart: req.InspectionStart,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// PostReturn handles POST /api/checklists/:id/return.
func (h *Handler) PostReturn(c *gin.Context) {
	var req returnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	rec, err := h.checklists.Return(c.Request.Context(), checklist.ReturnRequest{
		ChecklistID:   c.Param("id"),
		KmFinal:       *req.KmFinal,
		FuelLevelEnd:  req.FuelLevelEnd,
		EndDate:       req.EndDate,
		InspectionEnd: req.InspectionEnd,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// GetChecklists handles GET /api/checklists. With ?status=open it serves
// the pending-return view; that view is cached and invalidated on every
// exit/return.
func (h *Handler) GetChecklists(c *gin.Context) {
	status := c.Query("status")
	switch status {
	case "open":
		records, err := h.store.OpenChecklists(c.Request.Context())
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, records)
	case "":
		records, err := h.store.Checklists(c.Request.Context())
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, records)
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown status filter " + status})
	}
}

// GetChecklist handles GET /api/checklists/:id: the record plus the item
// and group set resolved for it.
func (h *Handler) GetChecklist(c *gin.Context) {
	rec, resolved, err := h.checklists.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	// A template that is still loading its items renders as an empty list,
	// never as null and never as substituted legacy items.
	items := resolved.Items
	if items == nil {
		items = []model.TemplateItem{}
	}
	groups := resolved.Groups
	if groups == nil {
		groups = []template.Group{}
	}
	c.JSON(http.StatusOK, checklistResponse{
		ChecklistRecord: rec,
		Items:           items,
		Groups:          groups,
		Source:          resolved.Source,
	})
}
