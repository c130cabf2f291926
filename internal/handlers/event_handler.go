package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/tzevents/internal/helpers"
	"github.com/joshua-takyi/tzevents/internal/models"
	"github.com/joshua-takyi/tzevents/internal/services"
	"github.com/joshua-takyi/tzevents/internal/timeutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultEventPageLimit = 200

func canView(actor models.Actor, event *models.Event) bool {
	return actor.IsAdmin() || event.IsAssigned(actor.ID)
}

func canDelete(actor models.Actor, event *models.Event) bool {
	return actor.IsAdmin() || event.CreatedBy == actor.ID
}

func viewerTimezone(c *gin.Context, actor models.Actor) string {
	return timeutil.ResolveTimezone(c.Query("viewerTimezone"), actor.Timezone)
}

// loadVisibleEvent fetches :id and checks the caller may see it. It writes
// the error response itself.
func loadVisibleEvent(c *gin.Context, e *services.EventService, actor models.Actor, action string) (*models.Event, bool) {
	id, ok := paramID(c, "event")
	if !ok {
		return nil, false
	}
	event, err := e.GetEvent(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	if !canView(actor, event) {
		c.JSON(http.StatusForbidden, models.ErrorResponse(models.KindForbidden, "not allowed to "+action))
		return nil, false
	}
	return event, true
}

func respondEvent(c *gin.Context, e *services.EventService, status int, event *models.Event, tz, msg string) {
	detail, err := e.Describe(c.Request.Context(), event, tz)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(status, models.SuccessResponse(detail, msg))
}

func CreateEvent(e *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		var req models.CreateEventInput
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request payload")
			return
		}
		if len(req.Profiles) == 0 {
			badRequest(c, "profiles required")
			return
		}

		if !actor.IsAdmin() {
			included := false
			for _, id := range req.Profiles {
				if id == actor.ID.Hex() {
					included = true
					break
				}
			}
			if !included {
				c.JSON(http.StatusForbidden, models.ErrorResponse(models.KindForbidden, "cannot create event for other profiles"))
				return
			}
		}

		event, err := e.CreateEvent(c.Request.Context(), actor, &req)
		if err != nil {
			writeError(c, err)
			return
		}
		respondEvent(c, e, http.StatusCreated, event, viewerTimezone(c, actor), "Event created successfully")
	}
}

func ListEvents(e *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		profileID, err := primitive.ObjectIDFromHex(c.Query("profileId"))
		if err != nil {
			badRequest(c, "profileId is required")
			return
		}

		page, limit := helpers.ParsePagination(c.Query("page"), c.Query("limit"), defaultEventPageLimit)
		filter := models.EventFilter{ProfileID: profileID, Page: page, Limit: limit}

		for param, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
			raw := c.Query(param)
			if raw == "" {
				continue
			}
			t, err := timeutil.ISOToUTC(raw)
			if err != nil {
				badRequest(c, "invalid "+param+" date")
				return
			}
			*dst = &t
		}
		if raw := c.Query("includeDeleted"); raw != "" {
			filter.IncludeDeleted, err = strconv.ParseBool(raw)
			if err != nil {
				badRequest(c, "invalid includeDeleted flag")
				return
			}
		}

		events, total, err := e.ListEvents(c.Request.Context(), filter)
		if err != nil {
			writeError(c, err)
			return
		}

		tz := viewerTimezone(c, actor)
		items := make([]*models.EventDetail, 0, len(events))
		for _, event := range events {
			detail, err := e.Describe(c.Request.Context(), event, tz)
			if err != nil {
				writeError(c, err)
				return
			}
			items = append(items, detail)
		}
		c.JSON(http.StatusOK, models.PaginatedResponse(items, page, limit, total))
	}
}

func GetEvent(e *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		event, ok := loadVisibleEvent(c, e, actor, "view this event")
		if !ok {
			return
		}
		respondEvent(c, e, http.StatusOK, event, viewerTimezone(c, actor), "")
	}
}

func UpdateEvent(e *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		var req models.EventUpdate
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request payload")
			return
		}
		event, ok := loadVisibleEvent(c, e, actor, "update")
		if !ok {
			return
		}

		updated, err := e.UpdateEvent(c.Request.Context(), event.ID, actor, &req)
		if err != nil {
			writeError(c, err)
			return
		}
		respondEvent(c, e, http.StatusOK, updated, viewerTimezone(c, actor), "Event updated successfully")
	}
}

func DeleteEvent(e *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, ok := paramID(c, "event")
		if !ok {
			return
		}
		event, err := e.GetEvent(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		if !canDelete(actor, event) {
			c.JSON(http.StatusForbidden, models.ErrorResponse(models.KindForbidden, "not allowed to delete"))
			return
		}

		res, err := e.SoftDeleteEvent(c.Request.Context(), id, actor)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(res, "Event deleted successfully"))
	}
}
