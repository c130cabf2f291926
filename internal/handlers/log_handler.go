package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/tzevents/internal/helpers"
	"github.com/joshua-takyi/tzevents/internal/models"
	"github.com/joshua-takyi/tzevents/internal/services"
)

// ListEventLogs pages through an event's change log. Only assigned
// profiles and admins may read it.
func ListEventLogs(e *services.EventService, l *services.LogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		event, ok := loadVisibleEvent(c, e, actor, "view logs")
		if !ok {
			return
		}

		page, limit := helpers.ParsePagination(c.Query("page"), c.Query("limit"), helpers.DefaultPageLimit)
		entries, total, err := l.ListLogsForEvent(c.Request.Context(), event.ID, page, limit)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.PaginatedResponse(entries, page, limit, total))
	}
}
