package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/tzevents/internal/helpers"
	"github.com/joshua-takyi/tzevents/internal/models"
	"github.com/joshua-takyi/tzevents/internal/services"
)

func CreateProfile(p *services.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CreateProfileInput
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request payload")
			return
		}

		profile, err := p.CreateProfile(c.Request.Context(), &req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(profile, "Profile created successfully"))
	}
}

func ListProfiles(p *services.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, limit := helpers.ParsePagination(c.Query("page"), c.Query("limit"), helpers.DefaultPageLimit)

		profiles, total, err := p.ListProfiles(c.Request.Context(), c.Query("q"), page, limit)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.PaginatedResponse(profiles, page, limit, total))
	}
}

func GetProfile(p *services.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "profile")
		if !ok {
			return
		}
		profile, err := p.GetProfile(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(profile, ""))
	}
}

func UpdateProfile(p *services.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, ok := paramID(c, "profile")
		if !ok {
			return
		}

		var fields map[string]interface{}
		if err := c.ShouldBindJSON(&fields); err != nil {
			badRequest(c, "invalid request payload")
			return
		}

		profile, err := p.UpdateProfile(c.Request.Context(), actor, id, fields)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(profile, "Profile updated successfully"))
	}
}
