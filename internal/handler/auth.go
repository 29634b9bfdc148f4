package handler

import (
	"CourseForge/internal/dto"
	"CourseForge/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AuthHandler issues tokens for the API.
type AuthHandler struct {
	jwtSecret string
}

// NewAuthHandler builds the auth handler.
func NewAuthHandler(jwtSecret string) *AuthHandler {
	return &AuthHandler{jwtSecret: jwtSecret}
}

// Login exchanges a subject and role for a signed token. Identity is
// asserted upstream; this service only coordinates storage.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if req.Subject == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subject is required"})
		return
	}
	role := req.Role
	if role == "" {
		role = "student"
	}
	token, err := utils.GenerateToken(h.jwtSecret, req.Subject, role)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, dto.LoginResponse{Token: token})
}
