package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"bridge-local-platform/internal/services"
	"bridge-local-platform/internal/transport/dto"
)

// AuthHandler holds dependencies for authentication endpoints.
type AuthHandler struct {
	service   *services.UserService
	validator *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service *services.UserService, validate *validator.Validate) *AuthHandler {
	return &AuthHandler{service: service, validator: validate}
}

// Login godoc
// @Summary      Log in with email and password
// @Description  Issues an access/refresh token pair on valid credentials.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        credentials body dto.LoginRequest true "Credentials"
// @Success      200 {object} dto.LoginResponse "Token pair issued"
// @Failure      400 {object} map[string]string "Bad Request - Invalid input"
// @Failure      401 {object} map[string]string "Invalid credentials"
// @Failure      500 {object} map[string]string "Internal Server Error"
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": FormatValidationErrors(err)})
		return
	}

	user, access, refresh, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err, "Failed to log in")
		return
	}

	c.JSON(http.StatusOK, dto.LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         MapUserToResponse(user),
	})
}

// Refresh godoc
// @Summary      Rotate a refresh token
// @Description  Exchanges a refresh token for a new access/refresh pair. The old token is revoked.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        token body dto.RefreshRequest true "Refresh token"
// @Success      200 {object} dto.RefreshResponse "New token pair"
// @Failure      400 {object} map[string]string "Bad Request - Invalid input"
// @Failure      401 {object} map[string]string "Unknown or expired refresh token"
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": FormatValidationErrors(err)})
		return
	}

	access, refresh, err := h.service.Refresh(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err, "Failed to refresh token")
		return
	}
	c.JSON(http.StatusOK, dto.RefreshResponse{AccessToken: access, RefreshToken: refresh})
}

// Logout godoc
// @Summary      Log out
// @Description  Revokes a refresh token. Revoking an unknown token succeeds.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        token body dto.LogoutRequest true "Refresh token"
// @Success      204 "Logged out"
// @Failure      400 {object} map[string]string "Bad Request - Invalid input"
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if err := h.service.Logout(c.Request.Context(), &req); err != nil {
		respondServiceError(c, err, "Failed to log out")
		return
	}
	c.Status(http.StatusNoContent)
}
