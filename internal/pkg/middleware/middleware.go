package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	RoleKey     = "role"
	RoleStudent = "student"
	RoleTeacher = "teacher"

	loginPath = "/login"
)

// Roles lists the roles accepted at login.
var Roles = []string{RoleStudent, RoleTeacher}

// ValidRole reports whether role is one of Roles.
func ValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// RoleGuard redirects to the login page unless the cookie session carries role.
// It only steers navigation and is not an authorization check.
func RoleGuard(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		stored, _ := sessions.Default(c).Get(RoleKey).(string)
		if stored != role {
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequestLogger logs every request once it has been served.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
