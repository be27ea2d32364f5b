package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fleetcheck-backend/internal/model"
)

// GetTemplateItems handles GET /api/templates/:id/items: the ordered item
// list of a checklist template. An existing template with no items returns
// an empty list.
func (h *Handler) GetTemplateItems(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid template id"})
		return
	}

	items, err := h.store.TemplateItems(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if items == nil {
		items = []model.TemplateItem{}
	}
	c.JSON(http.StatusOK, items)
}
