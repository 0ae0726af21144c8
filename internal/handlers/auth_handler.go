package handlers

import (
	"net/http"

	"github.com/farellandr/ticketgate/internal/helpers"
	"github.com/farellandr/ticketgate/internal/models"
	"github.com/farellandr/ticketgate/internal/services"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type RegisterStaffRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) RegisterStaff(c *gin.Context) {
	var req RegisterStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	staff, err := h.auth.RegisterStaff(c.Request.Context(), req.Email, req.Password, models.StaffRole(req.Role))
	if err != nil {
		if helpers.StatusForError(err) == http.StatusConflict {
			helpers.RespondWithError(c, http.StatusConflict, "Staff member already exists.")
			return
		}
		helpers.RespondWithServiceError(c, err, "Failed to create staff member.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Staff member registered successfully.",
		"staff":   staff,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		helpers.RespondWithServiceError(c, err, "Failed to log in.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": result.Token,
		"staff": result.Staff,
	})
}
