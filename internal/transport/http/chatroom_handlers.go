package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/embassyops/backoffice-server/internal/service/messages"
	"github.com/embassyops/backoffice-server/internal/store"
)

// ChatroomHandlers provides HTTP handlers for chatroom management endpoints.
type ChatroomHandlers struct {
	chat *messages.Service
	log  *zerolog.Logger
}

// NewChatroomHandlers creates a new chatroom handlers instance.
func NewChatroomHandlers(chat *messages.Service, logger *zerolog.Logger) *ChatroomHandlers {
	return &ChatroomHandlers{
		chat: chat,
		log:  logger,
	}
}

// CreateChatroomRequest represents the create chatroom request body.
type CreateChatroomRequest struct {
	Name        string  `json:"name" binding:"required,min=1,max=128"`
	Description string  `json:"description"`
	EmbassyID   string  `json:"embassy_id"`
	MemberIDs   []int64 `json:"member_ids"`
}

// AddMemberRequest represents the add member request body.
type AddMemberRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

// ChatroomResponse represents a chatroom in API responses.
type ChatroomResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	EmbassyID   string  `json:"embassy_id"`
	CreatedBy   int64   `json:"created_by"`
	MemberIDs   []int64 `json:"member_ids,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// MessageResponse represents a chat message in API responses.
type MessageResponse struct {
	ID          string   `json:"id"`
	ChatroomID  string   `json:"chatroom_id"`
	SenderID    int64    `json:"sender_id"`
	Content     string   `json:"content"`
	Attachments []string `json:"attachments"`
	IsRead      bool     `json:"is_read"`
	CreatedAt   string   `json:"created_at"`
}

// PageMeta describes pagination metadata in list responses.
type PageMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

// ListResponse is the envelope for paginated list responses.
type ListResponse struct {
	Data any      `json:"data"`
	Meta PageMeta `json:"meta"`
}

func pageFromQuery(c *gin.Context, defaultLimit int) store.Page {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit < 1 || limit > 100 {
		limit = defaultLimit
	}
	return store.Page{Number: page, Limit: limit}
}

func pageMeta(page store.Page, total int) PageMeta {
	totalPages := (total + page.Limit - 1) / page.Limit
	return PageMeta{
		Total:      total,
		Page:       page.Number,
		Limit:      page.Limit,
		TotalPages: totalPages,
	}
}

func messageResponse(msg *store.ChatMessage) MessageResponse {
	attachments := msg.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	return MessageResponse{
		ID:          msg.ID,
		ChatroomID:  msg.ChatroomID,
		SenderID:    msg.SenderID,
		Content:     msg.Content,
		Attachments: attachments,
		IsRead:      msg.IsRead,
		CreatedAt:   msg.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

func chatroomResponse(room *store.Chatroom, members []int64) ChatroomResponse {
	return ChatroomResponse{
		ID:          room.ID,
		Name:        room.Name,
		Description: room.Description,
		EmbassyID:   room.EmbassyID,
		CreatedBy:   room.CreatedBy,
		MemberIDs:   members,
		CreatedAt:   room.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		UpdatedAt:   room.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// CreateChatroom handles chatroom creation.
// POST /api/chatrooms
func (h *ChatroomHandlers) CreateChatroom(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req CreateChatroomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create chatroom request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	room, members, err := h.chat.CreateChatroom(c.Request.Context(), messages.ChatroomDraft{
		Name:        req.Name,
		Description: req.Description,
		EmbassyID:   req.EmbassyID,
		CreatedBy:   userID,
		MemberIDs:   req.MemberIDs,
	})
	if err != nil {
		if errors.Is(err, messages.ErrInvalidMembers) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		h.log.Error().Err(err).Msg("create chatroom failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, chatroomResponse(room, members))
}

// ListChatrooms handles chatroom listing with optional filters.
// GET /api/chatrooms?embassy_id=&user_id=&page=&limit=
func (h *ChatroomHandlers) ListChatrooms(c *gin.Context) {
	var memberID *int64
	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user_id"})
			return
		}
		memberID = &id
	}

	page := pageFromQuery(c, 25)
	rooms, total, err := h.chat.ListChatrooms(c.Request.Context(), c.Query("embassy_id"), memberID, page)
	if err != nil {
		h.log.Error().Err(err).Msg("list chatrooms failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	responses := make([]ChatroomResponse, 0, len(rooms))
	for _, room := range rooms {
		responses = append(responses, chatroomResponse(room, nil))
	}

	c.JSON(http.StatusOK, ListResponse{Data: responses, Meta: pageMeta(page, total)})
}

// GetChatroom handles fetching one chatroom with its member list.
// GET /api/chatrooms/:id
func (h *ChatroomHandlers) GetChatroom(c *gin.Context) {
	room, members, err := h.chat.Chatroom(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "chatroom not found"})
			return
		}
		h.log.Error().Err(err).Msg("get chatroom failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, chatroomResponse(room, members))
}

// AddMember handles adding a user to a chatroom.
// POST /api/chatrooms/:id/members
func (h *ChatroomHandlers) AddMember(c *gin.Context) {
	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	err := h.chat.AddMember(c.Request.Context(), c.Param("id"), req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "chatroom not found"})
		case errors.Is(err, messages.ErrInvalidMembers):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		default:
			h.log.Error().Err(err).Msg("add member failed")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// RemoveMember handles removing a user from a chatroom. Live subscriptions
// the user holds on the room are not torn down; they lapse on leave or
// disconnect.
// DELETE /api/chatrooms/:id/members/:userID
func (h *ChatroomHandlers) RemoveMember(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return
	}

	if err := h.chat.RemoveMember(c.Request.Context(), c.Param("id"), userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "chatroom not found"})
			return
		}
		h.log.Error().Err(err).Msg("remove member failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}

// CreateMessageRequest represents the create chat message request body.
type CreateMessageRequest struct {
	Content     string   `json:"content" binding:"required"`
	Attachments []string `json:"attachments"`
}

// CreateMessage handles posting a chat message over REST. The message is
// persisted and member notifications are written, but it is not pushed to
// live subscribers; connected clients pick it up from history.
// POST /api/chatrooms/:id/messages
func (h *ChatroomHandlers) CreateMessage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	msg, _, _, err := h.chat.CreateChatMessage(c.Request.Context(), messages.ChatMessageDraft{
		ChatroomID:  c.Param("id"),
		SenderID:    userID,
		Content:     req.Content,
		Attachments: req.Attachments,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "chatroom not found"})
			return
		}
		h.log.Error().Err(err).Msg("create message failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, messageResponse(msg))
}

// DeleteMessage handles removing a chat message.
// DELETE /api/chat-messages/:id
func (h *ChatroomHandlers) DeleteMessage(c *gin.Context) {
	if err := h.chat.DeleteChatMessage(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "message not found"})
			return
		}
		h.log.Error().Err(err).Msg("delete message failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}

// ListMessages handles fetching a chatroom's message history.
// GET /api/chatrooms/:id/messages?page=&limit=
func (h *ChatroomHandlers) ListMessages(c *gin.Context) {
	page := pageFromQuery(c, 50)
	msgs, total, err := h.chat.ListMessages(c.Request.Context(), c.Param("id"), page)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "chatroom not found"})
			return
		}
		h.log.Error().Err(err).Msg("list messages failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	responses := make([]MessageResponse, 0, len(msgs))
	for _, msg := range msgs {
		responses = append(responses, messageResponse(msg))
	}

	c.JSON(http.StatusOK, ListResponse{Data: responses, Meta: pageMeta(page, total)})
}
