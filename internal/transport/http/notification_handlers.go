package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/embassyops/backoffice-server/internal/service/messages"
	"github.com/embassyops/backoffice-server/internal/store"
)

// NotificationHandlers provides HTTP handlers for notification endpoints.
type NotificationHandlers struct {
	chat *messages.Service
	log  *zerolog.Logger
}

// NewNotificationHandlers creates a new notification handlers instance.
func NewNotificationHandlers(chat *messages.Service, logger *zerolog.Logger) *NotificationHandlers {
	return &NotificationHandlers{
		chat: chat,
		log:  logger,
	}
}

// NotificationResponse represents a notification in API responses.
type NotificationResponse struct {
	ID        string `json:"id"`
	UserID    int64  `json:"user_id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Type      string `json:"type"`
	Link      string `json:"link"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

// ListNotifications handles fetching the authenticated user's notifications.
// GET /api/notifications?page=&limit=
func (h *NotificationHandlers) ListNotifications(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	page := pageFromQuery(c, 25)
	notifications, total, err := h.chat.ListNotifications(c.Request.Context(), userID, page)
	if err != nil {
		h.log.Error().Err(err).Msg("list notifications failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	responses := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		responses = append(responses, NotificationResponse{
			ID:        n.ID,
			UserID:    n.UserID,
			Title:     n.Title,
			Message:   n.Message,
			Type:      n.Type,
			Link:      n.Link,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}

	c.JSON(http.StatusOK, ListResponse{Data: responses, Meta: pageMeta(page, total)})
}

// MarkNotificationRead handles marking a notification as read.
// PATCH /api/notifications/:id/read
func (h *NotificationHandlers) MarkNotificationRead(c *gin.Context) {
	if err := h.chat.MarkNotificationRead(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "notification not found"})
			return
		}
		h.log.Error().Err(err).Msg("mark notification read failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}
