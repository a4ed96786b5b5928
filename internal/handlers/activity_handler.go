package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gastos/internal/pagination"
	"gastos/internal/services"
)

// ActivityHandler serves the activity log.
type ActivityHandler struct {
	activityService services.ActivityServicer
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(activityService services.ActivityServicer) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

// GetActivity lists recorded mutations, newest first.
// @Summary     List activity
// @Tags        activity
// @Produce     json
// @Param       resource_type query string false "Filter by resource type"
// @Param       page          query int    false "Page number"
// @Param       page_size     query int    false "Page size"
// @Success     200 {object} pagination.PageResponse[models.ActivityLog] "Activity entries"
// @Failure     400 {object} ErrorResponse "Invalid query"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /activity [get]
func (h *ActivityHandler) GetActivity(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	resp, err := h.activityService.GetActivity(c.Request.Context(), c.Query("resource_type"), page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
