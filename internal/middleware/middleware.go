package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/tzevents/internal/helpers"
	"github.com/joshua-takyi/tzevents/internal/metrics"
	"github.com/joshua-takyi/tzevents/internal/models"
)

// UserKey is the gin context key holding *helpers.EnhancedClaims.
const UserKey = "user"

// Authenticator resolves an access token to the caller.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*helpers.EnhancedClaims, error)
}

// RequestID middleware adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// StructuredLogger provides structured logging middleware
func StructuredLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}
		requestID, _ := c.Get("request_id")

		attrs := []any{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if user, ok := c.Get(UserKey); ok {
			attrs = append(attrs, "user_id", user.(*helpers.EnhancedClaims).UserID)
		}
		logger.Info("HTTP Request", attrs...)
	}
}

// Metrics records request counts and latencies by route template.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		metrics.RequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		metrics.RequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}

// ErrorHandler turns errors attached with c.Error into a response when the
// handler did not write one. Panics are logged and answered with 500.
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				requestID, _ := c.Get("request_id")
				logger.Error("Request panicked",
					"request_id", requestID,
					"panic", r,
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					models.ErrorResponse(models.KindServerError, "internal server error"))
			}
		}()

		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			requestID, _ := c.Get("request_id")

			logger.Error("Request error",
				"request_id", requestID,
				"error", err.Error(),
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
			)

			if !c.Writer.Written() {
				c.JSON(http.StatusInternalServerError,
					models.ErrorResponse(models.KindServerError, "internal server error"))
			}
		}
	}
}

// AuthMiddleware reads a bearer token, falling back to the access_token
// cookie, and stores the caller under UserKey.
func AuthMiddleware(auth Authenticator, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := helpers.BearerToken(c.GetHeader("Authorization"))
		if token == "" {
			if cookie, err := c.Cookie("access_token"); err == nil {
				token = cookie
			}
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				models.ErrorResponse(models.KindUnauthorized, "missing or invalid Authorization header"))
			return
		}

		claims, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			kind := models.KindOf(err)
			if kind != models.KindUnauthorized {
				logger.Error("Authentication failed", "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					models.ErrorResponse(models.KindServerError, "authentication failed"))
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse(kind, models.MessageOf(err)))
			return
		}

		c.Set(UserKey, claims)
		c.Next()
	}
}

// RequireRole must run after AuthMiddleware.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				models.ErrorResponse(models.KindUnauthorized, "not authenticated"))
			return
		}
		if !claims.HasRole(role) {
			c.AbortWithStatusJSON(http.StatusForbidden,
				models.ErrorResponse(models.KindForbidden, role+" privileges required"))
			return
		}
		c.Next()
	}
}

func AdminOnly() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin)
}

// SelfOrAdmin lets a caller through when the :id path parameter is their
// own profile, or when they are an admin.
func SelfOrAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				models.ErrorResponse(models.KindUnauthorized, "not authenticated"))
			return
		}
		if !claims.IsAdmin() && !claims.IsOwner(c.Param("id")) {
			c.AbortWithStatusJSON(http.StatusForbidden,
				models.ErrorResponse(models.KindForbidden, "not allowed to update this profile"))
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (*helpers.EnhancedClaims, bool) {
	value, ok := c.Get(UserKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*helpers.EnhancedClaims)
	return claims, ok && claims != nil
}
