package handler

import (
	"bytes"
	"errors"
	"image/jpeg"
	"net/http"

	"engage-track/internal/pkg/capture"
	"engage-track/internal/pkg/model/recognition_model"
	"engage-track/internal/pkg/service"
	"engage-track/internal/pkg/service/dashboard_service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

var errNoFrame = errors.New("no frame captured yet")

func (h *Handler) setStudentGroup(api *gin.RouterGroup) {
	api.GET("", h.studentBoard)
	api.POST("/camera/start", h.startCamera)
	api.POST("/camera/stop", h.stopCamera)
	api.POST("/frames", h.pushFrame)
	api.GET("/snapshot", h.snapshot)
}

func (h *Handler) studentBoard(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.service.Snapshot()})
}

func (h *Handler) startCamera(c *gin.Context) {

	session, err := h.service.Start()
	if err != nil {
		h.service.CameraFailed(err)
		errorResponse(c, http.StatusServiceUnavailable, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": session})
}

func (h *Handler) stopCamera(c *gin.Context) {

	if err := h.service.Stop(); err != nil {
		log.Warn().Err(err).Msg("camera stopped with error")
	}

	c.JSON(http.StatusOK, gin.H{"data": h.service.Session()})
}

func (h *Handler) pushFrame(c *gin.Context) {
	var req recognition_model.ProcessFrameRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err)
		return
	}

	err := h.service.PushFrame(req.Frame)
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, gin.H{"data": "frame accepted"})
	case errors.Is(err, service.ErrNoPushSource), errors.Is(err, capture.ErrNotReady):
		errorResponse(c, http.StatusConflict, err)
	default:
		errorResponse(c, http.StatusBadRequest, err)
	}
}

func (h *Handler) snapshot(c *gin.Context) {

	img, ok := h.service.Frame()
	if !ok {
		errorResponse(c, http.StatusNotFound, errNoFrame)
		return
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		log.Error().Err(err).Msg("failed to encode snapshot")
		h.service.Notify(dashboard_service.NoticeError, "Could not render the camera snapshot")
		errorResponse(c, http.StatusInternalServerError, err)
		return
	}

	c.Data(http.StatusOK, "image/jpeg", buf.Bytes())
}
