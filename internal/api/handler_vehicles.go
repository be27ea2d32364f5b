package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetVehicles handles GET /api/vehicles.
func (h *Handler) GetVehicles(c *gin.Context) {
	vehicles, err := h.store.Vehicles(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, vehicles)
}

// GetVehicle handles GET /api/vehicles/:id.
func (h *Handler) GetVehicle(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid vehicle id"})
		return
	}

	vehicle, err := h.store.VehicleByID(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, vehicle)
}

// mileageResponse is the cached mileage view of a vehicle.
type mileageResponse struct {
	VehicleID int64   `json:"vehicleId"`
	Plate     string  `json:"plate"`
	Mileage   float64 `json:"mileage"`
}

// GetVehicleMileage handles GET /api/vehicles/:id/mileage. The response is
// cached and invalidated by checklist exit/return.
func (h *Handler) GetVehicleMileage(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid vehicle id"})
		return
	}

	vehicle, err := h.store.VehicleByID(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, mileageResponse{
		VehicleID: vehicle.ID,
		Plate:     vehicle.Plate,
		Mileage:   vehicle.Mileage,
	})
}
