package handler

import (
	"net/http"

	"engage-track/internal/pkg/middleware"
	"engage-track/internal/pkg/service"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *service.Service
}

func NewHandler(service *service.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// SetRoutes registers the login gate and both dashboards. The router must already carry
// the cookie sessions middleware.
func (h *Handler) SetRoutes(router gin.IRouter) {
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/login")
	})

	h.setLoginGroup(router)

	studentApi := router.Group("/student")
	studentApi.Use(middleware.RoleGuard(middleware.RoleStudent))
	h.setStudentGroup(studentApi)

	teacherApi := router.Group("/teacher")
	teacherApi.Use(middleware.RoleGuard(middleware.RoleTeacher))
	h.setTeacherGroup(teacherApi)
}

func errorResponse(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}
