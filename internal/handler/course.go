package handler

import (
	"CourseForge/internal/dto"
	"CourseForge/internal/service"
	"CourseForge/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CourseHandler binds course CRUD to HTTP.
type CourseHandler struct {
	courses *service.CourseService
}

// NewCourseHandler builds the course handler.
func NewCourseHandler(courses *service.CourseService) *CourseHandler {
	return &CourseHandler{courses: courses}
}

// Create inserts a course.
func (h *CourseHandler) Create(c *gin.Context) {
	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	course, err := h.courses.Create(
		c.Request.Context(),
		req.Name,
		req.Description,
		req.Visibility,
		c.GetString("subject"),
		req.Collaborators,
	)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, course)
}

// Get loads one course.
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.courses.Get(c.Request.Context(), c.Param("courseID"))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, course)
}

// List returns all courses.
func (h *CourseHandler) List(c *gin.Context) {
	courses, err := h.courses.List(c.Request.Context())
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, courses)
}

// Delete removes a course.
func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.courses.Delete(c.Request.Context(), c.Param("courseID")); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, nil)
}
