package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/tzevents/internal/models"
	"github.com/joshua-takyi/tzevents/internal/services"
)

// Login issues a token for an existing profile. The token is returned in
// the body and also set as the access_token cookie.
func Login(p *services.ProfileService, secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.LoginInput
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request payload")
			return
		}

		res, err := p.Login(c.Request.Context(), &req)
		if err != nil {
			writeError(c, err)
			return
		}

		c.SetCookie("access_token", res.Token, int(p.TokenTTL().Seconds()), "/", "", secureCookies, true)
		c.JSON(http.StatusOK, models.SuccessResponse(res, "Logged in successfully"))
	}
}

func Logout(secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.SetCookie("access_token", "", -1, "/", "", secureCookies, true)
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "Logged out successfully"))
	}
}

// Me returns the caller's stored profile.
func Me(p *services.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		profile, err := p.GetProfile(c.Request.Context(), actor.ID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(profile, ""))
	}
}
