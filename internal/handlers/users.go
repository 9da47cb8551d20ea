package handlers

import (
	"context"
	"errors"
	"net/http"

	"dorm-listing-portal/internal/auth"
	"dorm-listing-portal/internal/models"
	"dorm-listing-portal/internal/users"

	"github.com/gin-gonic/gin"
)

// UserService manages user profiles and roles
type UserService interface {
	Register(ctx context.Context, userID, email string) (*models.User, error)
	Get(ctx context.Context, userID string) (*models.User, error)
	AssignRole(ctx context.Context, userID string, role models.UserRole) error
}

// UserHandler handles profile and role requests for the authenticated user
type UserHandler struct {
	users UserService
}

func NewUserHandler(svc UserService) *UserHandler {
	return &UserHandler{users: svc}
}

type registerRequest struct {
	Email string `json:"email" binding:"required"`
}

type assignRoleRequest struct {
	Role models.UserRole `json:"role" binding:"required"`
}

// Register creates the profile row for the token subject
func (h *UserHandler) Register(c *gin.Context) {
	userID, ok := auth.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authenticated"})
		return
	}

	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request", "error": err.Error()})
		return
	}

	user, err := h.users.Register(c.Request.Context(), userID, req.Email)
	var vErr *users.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request", "field": vErr.Field, "error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to register user", "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, user)
}

// Me returns the authenticated user's profile
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := auth.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authenticated"})
		return
	}

	user, err := h.users.Get(c.Request.Context(), userID)
	if errors.Is(err, users.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch user", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, user)
}

// AssignRole sets the authenticated user's role
func (h *UserHandler) AssignRole(c *gin.Context) {
	userID, ok := auth.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authenticated"})
		return
	}

	var req assignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request", "error": err.Error()})
		return
	}

	err := h.users.AssignRole(c.Request.Context(), userID, req.Role)
	var vErr *users.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid role", "error": err.Error()})
		return
	case errors.Is(err, users.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to assign role", "error": err.Error()})
		return
	}

	user, err := h.users.Get(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch user", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, user)
}
