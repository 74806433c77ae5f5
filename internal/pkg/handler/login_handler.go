package handler

import (
	"errors"
	"net/http"

	"engage-track/internal/pkg/middleware"
	"engage-track/internal/pkg/model/session_model"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

var errInvalidRole = errors.New("role must be student or teacher")

func (h *Handler) setLoginGroup(api gin.IRouter) {
	api.GET("/login", h.loginPage)
	api.POST("/login", h.login)
	api.POST("/logout", h.logout)
}

func (h *Handler) loginPage(c *gin.Context) {
	role, _ := sessions.Default(c).Get(middleware.RoleKey).(string)

	c.JSON(http.StatusOK, gin.H{"roles": middleware.Roles, "role": role})
}

func (h *Handler) login(c *gin.Context) {
	var req session_model.LoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err)
		return
	}

	if !middleware.ValidRole(req.Role) {
		errorResponse(c, http.StatusBadRequest, errInvalidRole)
		return
	}

	s := sessions.Default(c)
	s.Set(middleware.RoleKey, req.Role)
	if err := s.Save(); err != nil {
		log.Error().Err(err).Msg("failed to save session")
		errorResponse(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": req.Role, "redirect": "/" + req.Role})
}

func (h *Handler) logout(c *gin.Context) {
	s := sessions.Default(c)
	s.Clear()
	if err := s.Save(); err != nil {
		log.Error().Err(err).Msg("failed to clear session")
		errorResponse(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": "logged out", "redirect": "/login"})
}
