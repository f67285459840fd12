package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/embassyops/backoffice-server/internal/service/messages"
	"github.com/embassyops/backoffice-server/internal/store"
)

// EmailHandlers provides HTTP handlers for the email endpoints.
type EmailHandlers struct {
	chat *messages.Service
	log  *zerolog.Logger
}

// NewEmailHandlers creates a new email handlers instance.
func NewEmailHandlers(chat *messages.Service, logger *zerolog.Logger) *EmailHandlers {
	return &EmailHandlers{
		chat: chat,
		log:  logger,
	}
}

// CreateEmailRequest represents the create email request body. Status
// defaults to draft.
type CreateEmailRequest struct {
	ReceiverIDs []int64  `json:"receiver_ids" binding:"required,min=1"`
	EmbassyID   string   `json:"embassy_id"`
	Subject     string   `json:"subject" binding:"required"`
	Content     string   `json:"content" binding:"required"`
	Attachments []string `json:"attachments"`
	Status      string   `json:"status"`
	ScheduledAt *string  `json:"scheduled_at"`
}

// ScheduleEmailRequest represents the schedule email request body.
type ScheduleEmailRequest struct {
	ScheduledAt string `json:"scheduled_at" binding:"required"`
}

// EmailRecipientResponse represents a recipient's read state.
type EmailRecipientResponse struct {
	UserID int64   `json:"user_id"`
	IsRead bool    `json:"is_read"`
	ReadAt *string `json:"read_at"`
}

// EmailResponse represents an email in API responses.
type EmailResponse struct {
	ID          string                   `json:"id"`
	SenderID    int64                    `json:"sender_id"`
	EmbassyID   string                   `json:"embassy_id"`
	Subject     string                   `json:"subject"`
	Content     string                   `json:"content"`
	Attachments []string                 `json:"attachments"`
	Status      string                   `json:"status"`
	SentAt      *string                  `json:"sent_at"`
	ScheduledAt *string                  `json:"scheduled_at"`
	Recipients  []EmailRecipientResponse `json:"recipients,omitempty"`
	CreatedAt   string                   `json:"created_at"`
	UpdatedAt   string                   `json:"updated_at"`
}

const emailTimeFormat = "2006-01-02T15:04:05Z"

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(emailTimeFormat)
	return &s
}

func emailResponse(email *store.Email, recipients []store.EmailRecipient) EmailResponse {
	attachments := email.Attachments
	if attachments == nil {
		attachments = []string{}
	}

	var recipientResponses []EmailRecipientResponse
	for _, r := range recipients {
		recipientResponses = append(recipientResponses, EmailRecipientResponse{
			UserID: r.UserID,
			IsRead: r.IsRead,
			ReadAt: formatOptionalTime(r.ReadAt),
		})
	}

	return EmailResponse{
		ID:          email.ID,
		SenderID:    email.SenderID,
		EmbassyID:   email.EmbassyID,
		Subject:     email.Subject,
		Content:     email.Content,
		Attachments: attachments,
		Status:      email.Status,
		SentAt:      formatOptionalTime(email.SentAt),
		ScheduledAt: formatOptionalTime(email.ScheduledAt),
		Recipients:  recipientResponses,
		CreatedAt:   email.CreatedAt.UTC().Format(emailTimeFormat),
		UpdatedAt:   email.UpdatedAt.UTC().Format(emailTimeFormat),
	}
}

// CreateEmail handles email creation (draft or send).
// POST /api/emails
func (h *EmailHandlers) CreateEmail(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req CreateEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create email request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	var scheduledAt *time.Time
	if req.ScheduledAt != nil {
		t, err := time.Parse(time.RFC3339, *req.ScheduledAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid scheduled_at"})
			return
		}
		scheduledAt = &t
	}

	email, err := h.chat.CreateEmail(c.Request.Context(), messages.EmailDraft{
		SenderID:    userID,
		ReceiverIDs: req.ReceiverIDs,
		EmbassyID:   req.EmbassyID,
		Subject:     req.Subject,
		Content:     req.Content,
		Attachments: req.Attachments,
		Status:      req.Status,
		ScheduledAt: scheduledAt,
	})
	if err != nil {
		if errors.Is(err, messages.ErrInvalidMembers) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		h.log.Error().Err(err).Msg("create email failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, emailResponse(email, nil))
}

// ListEmails handles the unfiltered email listing with query filters.
// GET /api/emails?embassy_id=&sender_id=&receiver_id=&status=&page=&limit=
func (h *EmailHandlers) ListEmails(c *gin.Context) {
	filter := store.EmailFilter{
		EmbassyID: c.Query("embassy_id"),
		Status:    c.Query("status"),
	}
	if raw := c.Query("sender_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid sender_id"})
			return
		}
		filter.SenderID = &id
	}
	if raw := c.Query("receiver_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid receiver_id"})
			return
		}
		filter.ReceiverID = &id
	}

	page := pageFromQuery(c, 25)
	emails, total, err := h.chat.ListEmails(c.Request.Context(), filter, page)
	if err != nil {
		h.log.Error().Err(err).Msg("list emails failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: emailResponses(emails), Meta: pageMeta(page, total)})
}

type folderLister func(c *gin.Context, userID int64, embassyID string, page store.Page) ([]*store.Email, int, error)

func (h *EmailHandlers) listFolder(c *gin.Context, list folderLister) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	page := pageFromQuery(c, 25)
	emails, total, err := list(c, userID, c.Query("embassy_id"), page)
	if err != nil {
		h.log.Error().Err(err).Msg("list email folder failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: emailResponses(emails), Meta: pageMeta(page, total)})
}

// Inbox handles the authenticated user's inbox.
// GET /api/emails/inbox?embassy_id=&page=&limit=
func (h *EmailHandlers) Inbox(c *gin.Context) {
	h.listFolder(c, func(c *gin.Context, userID int64, embassyID string, page store.Page) ([]*store.Email, int, error) {
		return h.chat.Inbox(c.Request.Context(), userID, embassyID, page)
	})
}

// Sent handles the authenticated user's sent folder.
// GET /api/emails/sent?embassy_id=&page=&limit=
func (h *EmailHandlers) Sent(c *gin.Context) {
	h.listFolder(c, func(c *gin.Context, userID int64, embassyID string, page store.Page) ([]*store.Email, int, error) {
		return h.chat.SentEmails(c.Request.Context(), userID, embassyID, page)
	})
}

// Drafts handles the authenticated user's drafts.
// GET /api/emails/drafts?embassy_id=&page=&limit=
func (h *EmailHandlers) Drafts(c *gin.Context) {
	h.listFolder(c, func(c *gin.Context, userID int64, embassyID string, page store.Page) ([]*store.Email, int, error) {
		return h.chat.Drafts(c.Request.Context(), userID, embassyID, page)
	})
}

// Archived handles the authenticated user's archived folder.
// GET /api/emails/archived?embassy_id=&page=&limit=
func (h *EmailHandlers) Archived(c *gin.Context) {
	h.listFolder(c, func(c *gin.Context, userID int64, embassyID string, page store.Page) ([]*store.Email, int, error) {
		return h.chat.ArchivedEmails(c.Request.Context(), userID, embassyID, page)
	})
}

// GetEmail handles fetching one email with recipient read states.
// GET /api/emails/:id
func (h *EmailHandlers) GetEmail(c *gin.Context) {
	email, recipients, err := h.chat.Email(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "email not found"})
			return
		}
		h.log.Error().Err(err).Msg("get email failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, emailResponse(email, recipients))
}

// MarkEmailRead handles marking an email read for the authenticated recipient.
// PATCH /api/emails/:id/read
func (h *EmailHandlers) MarkEmailRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	h.updateEmail(c, func(id string) error {
		return h.chat.MarkEmailRead(c.Request.Context(), id, userID)
	})
}

// MarkEmailDraft handles moving an email back to draft.
// PATCH /api/emails/:id/draft
func (h *EmailHandlers) MarkEmailDraft(c *gin.Context) {
	h.updateEmail(c, func(id string) error {
		return h.chat.MarkEmailDraft(c.Request.Context(), id)
	})
}

// ArchiveEmail handles archiving an email.
// PATCH /api/emails/:id/archive
func (h *EmailHandlers) ArchiveEmail(c *gin.Context) {
	h.updateEmail(c, func(id string) error {
		return h.chat.ArchiveEmail(c.Request.Context(), id)
	})
}

// DeleteEmail handles soft-deleting an email.
// PATCH /api/emails/:id/delete
func (h *EmailHandlers) DeleteEmail(c *gin.Context) {
	h.updateEmail(c, func(id string) error {
		return h.chat.DeleteEmail(c.Request.Context(), id)
	})
}

// ScheduleEmail handles scheduling an email to be sent later.
// PATCH /api/emails/:id/schedule
func (h *EmailHandlers) ScheduleEmail(c *gin.Context) {
	var req ScheduleEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	at, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid scheduled_at"})
		return
	}

	h.updateEmail(c, func(id string) error {
		return h.chat.ScheduleEmail(c.Request.Context(), id, at)
	})
}

func (h *EmailHandlers) updateEmail(c *gin.Context, update func(id string) error) {
	if err := update(c.Param("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "email not found"})
			return
		}
		h.log.Error().Err(err).Msg("update email failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}

func emailResponses(emails []*store.Email) []EmailResponse {
	responses := make([]EmailResponse, 0, len(emails))
	for _, email := range emails {
		responses = append(responses, emailResponse(email, nil))
	}
	return responses
}
