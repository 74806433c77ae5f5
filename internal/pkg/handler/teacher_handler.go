package handler

import (
	"errors"
	"net/http"
	"strconv"

	"engage-track/internal/pkg/model/recognition_model"
	"engage-track/internal/pkg/service/dashboard_service"
	"engage-track/tools"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const spreadsheetContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *Handler) setTeacherGroup(api *gin.RouterGroup) {
	api.GET("/attendance", h.getAttendance)
	api.GET("/attendance/download", h.downloadAttendance)
	api.POST("/register", h.registerFace)
	api.GET("/sessions", h.listSessions)
	api.GET("/sessions/:id", h.getSession)
}

func (h *Handler) getAttendance(c *gin.Context) {

	records, err := h.service.Attendance(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch attendance")
		errorResponse(c, http.StatusBadGateway, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": records})
}

func (h *Handler) downloadAttendance(c *gin.Context) {

	report, filename, err := h.service.Download(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to download attendance")
		errorResponse(c, http.StatusBadGateway, err)
		return
	}

	contentType := report.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = spreadsheetContentType
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, report.Data)
}

func (h *Handler) registerFace(c *gin.Context) {
	var req recognition_model.RegisterRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err)
		return
	}

	payload, err := h.service.Register(c.Request.Context(), req.Image, req.Name)
	if err != nil {
		if errors.Is(err, dashboard_service.ErrInvalidRegistration) {
			errorResponse(c, http.StatusBadRequest, err)
			return
		}
		log.Error().Err(err).Str("name", req.Name).Msg("failed to register face")
		errorResponse(c, http.StatusBadGateway, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": payload})
}

func (h *Handler) listSessions(c *gin.Context) {
	var limit int
	var err error

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil {
			errorResponse(c, http.StatusBadRequest, err)
			return
		}
	}

	sessions, err := h.service.Sessions(limit)
	if err != nil {
		if errors.Is(err, dashboard_service.ErrJournalDisabled) {
			errorResponse(c, http.StatusNotFound, err)
			return
		}
		log.Error().Err(err).Msg("failed to list sessions")
		errorResponse(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": sessions})
}

func (h *Handler) getSession(c *gin.Context) {

	session, err := h.service.SessionDetail(c.Param("id"))
	if err != nil {
		if errors.Is(err, dashboard_service.ErrJournalDisabled) || errors.Is(err, tools.ErrNotFound) {
			errorResponse(c, http.StatusNotFound, err)
			return
		}
		log.Error().Err(err).Str("session", c.Param("id")).Msg("failed to get session")
		errorResponse(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": session})
}
