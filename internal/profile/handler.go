package profile

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gather-app/gather-backend/internal/validation"
	"github.com/gather-app/gather-backend/middleware"
)

type Handler struct {
	Service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{Service: s}
}

// ===========================
// 👤 GET /profiles/me
// @Summary Current user's profile
// @Tags Profiles
// @Produce json
// @Success 200 {object} Profile
// @Security BearerAuth
// @Router /api/v1/profiles/me [get]
func (h *Handler) GetMyProfile(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}

	p, err := h.Service.GetMyProfile(c.Request.Context(), accessContext.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// ===========================
// ✏️ PUT /profiles/me
// @Summary Update current user's profile
// @Tags Profiles
// @Accept json
// @Produce json
// @Param body body UpdateProfileRequest true "Fields to change"
// @Success 200 {object} Profile
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/profiles/me [put]
func (h *Handler) UpdateMyProfile(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
		return
	}

	p, err := h.Service.UpdateMyProfile(c.Request.Context(), accessContext.UserID, req, middleware.GetIPFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// ===========================
// 🔍 GET /profiles/:id
// @Summary Public profile
// @Tags Profiles
// @Produce json
// @Param id path string true "Profile ID"
// @Success 200 {object} PublicProfile
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/profiles/{id} [get]
func (h *Handler) GetProfile(c *gin.Context) {
	p, err := h.Service.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, validation.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
	case errors.Is(err, ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
	default:
		log.Printf("❌ profile request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
