package member

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gather-app/gather-backend/internal/event"
	"github.com/gather-app/gather-backend/middleware"
)

type Handler struct {
	Service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{Service: s}
}

// ===========================
// 🙋 POST /events/:id/members
// @Summary Request to join an event
// @Tags Members
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param body body JoinRequest false "Optional memo for the host"
// @Success 201 {object} EventMember
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/events/{id}/members [post]
func (h *Handler) RequestJoin(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}

	var req JoinRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
			return
		}
	}

	m, err := h.Service.RequestJoin(c.Request.Context(), accessContext, c.Param("id"), req, middleware.GetIPFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// ===========================
// 🔗 POST /invites/:code/join
// @Summary Join an event through its invite link
// @Description Joins as approved. Returns 200 with the existing row when already a member.
// @Tags Members
// @Produce json
// @Param code path string true "Invite code"
// @Success 201 {object} EventMember
// @Success 200 {object} EventMember
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/invites/{code}/join [post]
func (h *Handler) JoinByInviteCode(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}

	m, created, err := h.Service.JoinByInviteCode(c.Request.Context(), accessContext, c.Param("code"), middleware.GetIPFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if created {
		c.JSON(http.StatusCreated, m)
		return
	}
	c.JSON(http.StatusOK, m)
}

// ===========================
// 🔍 GET /events/:id/members/me
// @Summary My membership in an event
// @Description member is null when the caller has no row.
// @Tags Members
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /api/v1/events/{id}/members/me [get]
func (h *Handler) MyMembership(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}

	m, err := h.Service.MyMembership(c.Request.Context(), accessContext, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"member": m})
}

// ===========================
// 📋 GET /events/:id/members?status=
// @Summary List members (host only)
// @Tags Members
// @Produce json
// @Param id path string true "Event ID"
// @Param status query string false "pending, approved, rejected or withdrawn"
// @Success 200 {array} MemberView
// @Security BearerAuth
// @Router /api/v1/events/{id}/members [get]
func (h *Handler) ListMembers(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}

	members, err := h.Service.ListMembers(c.Request.Context(), accessContext, c.Param("id"), c.Query("status"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

// ===========================
// 🔄 PATCH /events/:id/members/:userId
// @Summary Approve, reject or withdraw a member (host only)
// @Tags Members
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param userId path string true "Member user ID"
// @Param body body UpdateStatusRequest true "New status"
// @Success 200 {object} EventMember
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/events/{id}/members/{userId} [patch]
func (h *Handler) UpdateStatus(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
		return
	}

	m, err := h.Service.UpdateStatus(c.Request.Context(), accessContext, c.Param("id"), c.Param("userId"), req.Status, middleware.GetIPFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// ===========================
// 👋 POST /events/:id/members/me/withdraw
// @Summary Leave an event
// @Tags Members
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} EventMember
// @Security BearerAuth
// @Router /api/v1/events/{id}/members/me/withdraw [post]
func (h *Handler) Withdraw(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}

	m, err := h.Service.Withdraw(c.Request.Context(), accessContext, c.Param("id"), middleware.GetIPFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// ===========================
// ❌ DELETE /events/:id/members/:userId
// @Summary Remove a member (host only)
// @Tags Members
// @Param id path string true "Event ID"
// @Param userId path string true "Member user ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/events/{id}/members/{userId} [delete]
func (h *Handler) RemoveMember(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}

	if err := h.Service.RemoveMember(c.Request.Context(), accessContext, c.Param("id"), c.Param("userId"), middleware.GetIPFromContext(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "member removed"})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrAlreadyMember),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrCapacityReached),
		errors.Is(err, ErrHostCannotJoin):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		event.WriteError(c, err)
	}
}
