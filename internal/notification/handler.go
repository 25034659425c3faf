package notification

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gather-app/gather-backend/middleware"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

type Handler struct {
	Service  *Service
	upgrader websocket.Upgrader
}

func NewHandler(s *Service, allowedOrigins []string) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &Handler{
		Service: s,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// GET /api/v1/notifications
// @Summary List my in-app notifications
// @Tags Notifications
// @Produce json
// @Param unread query bool false "Only unread"
// @Param limit query int false "Max items (default 20)"
// @Success 200 {array} InAppNotification
// @Security BearerAuth
// @Router /api/v1/notifications [get]
func (h *Handler) List(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	unread := c.Query("unread") == "true"

	items, err := h.Service.ListMine(c.Request.Context(), accessContext.UserID, unread, limit)
	if err != nil {
		log.Printf("❌ list notifications: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch notifications"})
		return
	}
	c.JSON(http.StatusOK, items)
}

// PUT /api/v1/notifications/:id/read
// @Summary Mark a notification as read
// @Tags Notifications
// @Param id path int true "Notification ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/notifications/{id}/read [put]
func (h *Handler) MarkRead(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.Service.MarkRead(c.Request.Context(), uint(id), accessContext.UserID); err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark as read"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "marked as read"})
}

// POST /api/v1/notifications/devices
// @Summary Register an FCM device token
// @Tags Notifications
// @Accept json
// @Param body body RegisterDeviceRequest true "Device"
// @Success 200 {object} DeviceToken
// @Security BearerAuth
// @Router /api/v1/notifications/devices [post]
func (h *Handler) RegisterDevice(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}
	var req RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := h.Service.RegisterDevice(c.Request.Context(), accessContext.UserID, req)
	if err != nil {
		log.Printf("❌ %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register device token"})
		return
	}
	c.JSON(http.StatusOK, t)
}

// DELETE /api/v1/notifications/devices
// @Summary Remove an FCM device token
// @Tags Notifications
// @Accept json
// @Param body body RemoveDeviceRequest true "Device"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/notifications/devices [delete]
func (h *Handler) RemoveDevice(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}
	var req RemoveDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Service.RemoveDevice(c.Request.Context(), accessContext.UserID, req.Token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to unregister device token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "device token removed successfully"})
}

// GET /api/v1/notifications/ws
// @Summary Live notification feed over websocket
// @Tags Notifications
// @Param access_token query string false "Bearer token for browsers that cannot set headers"
// @Security BearerAuth
// @Router /api/v1/notifications/ws [get]
func (h *Handler) Stream(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}

	sub, err := h.Service.Subscribe(c.Request.Context(), accessContext.UserID)
	if err != nil {
		if errors.Is(err, ErrRealtimeDisabled) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		log.Printf("❌ %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open notification feed"})
		return
	}
	defer sub.Close()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		log.Printf("⚠️ websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	// reader goroutine: handles pongs and notices the client going away
	closed := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	ch := sub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}
