package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/tzevents/internal/middleware"
	"github.com/joshua-takyi/tzevents/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func statusFor(kind models.ErrorKind) int {
	switch kind {
	case models.KindInvalidInput:
		return http.StatusBadRequest
	case models.KindUnauthorized:
		return http.StatusUnauthorized
	case models.KindForbidden:
		return http.StatusForbidden
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the status of err's kind. Server errors are also
// attached to the context so ErrorHandler logs them.
func writeError(c *gin.Context, err error) {
	kind := models.KindOf(err)
	if kind == models.KindServerError {
		_ = c.Error(err)
	}
	c.JSON(statusFor(kind), models.ErrorResponse(kind, models.MessageOf(err)))
}

func currentActor(c *gin.Context) (models.Actor, bool) {
	claims, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse(models.KindUnauthorized, "unauthorized"))
		return models.Actor{}, false
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse(models.KindUnauthorized, "invalid user ID in token"))
		return models.Actor{}, false
	}
	return models.Actor{ID: id, Role: claims.Role, Timezone: claims.Timezone}, true
}

// paramID parses the :id path parameter.
func paramID(c *gin.Context, what string) (primitive.ObjectID, bool) {
	raw := strings.Trim(strings.TrimSpace(c.Param("id")), "\"'")
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse(models.KindInvalidInput, "invalid "+what+" ID format"))
		return primitive.NilObjectID, false
	}
	return id, true
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse(models.KindInvalidInput, msg))
}
