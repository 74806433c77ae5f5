package internal

import (
	"net/http"

	"engage-track/internal/pkg/handler"
	"engage-track/internal/pkg/middleware"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const sessionCookieName = "engage_track_session"

func setupRoutes(router *gin.Engine, h *handler.Handler, secret string) {
	router.Use(gin.Recovery(), middleware.RequestLogger())

	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	router.Use(sessions.Sessions(sessionCookieName, store))

	h.SetRoutes(router)
}
