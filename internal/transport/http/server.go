package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/embassyops/backoffice-server/internal/auth"
	"github.com/embassyops/backoffice-server/internal/config"
	"github.com/embassyops/backoffice-server/internal/core"
	"github.com/embassyops/backoffice-server/internal/service/messages"
)

// NewServer builds the HTTP server with REST and WebSocket routes.
func NewServer(hub *core.Hub, authService *auth.Service, chat *messages.Service, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(hub, authService, chat, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter assembles the gin engine with all routes registered.
func NewRouter(hub *core.Hub, authService *auth.Service, chat *messages.Service, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	wsHandler := NewWSHandler(hub, chat, logger)
	router.GET("/ws", func(c *gin.Context) {
		wsHandler.ServeHTTP(c.Writer, c.Request)
	})

	apiHandlers := NewAPIHandlers(authService, logger)
	roomHandlers := NewChatroomHandlers(chat, logger)
	notifHandlers := NewNotificationHandlers(chat, logger)
	emailHandlers := NewEmailHandlers(chat, logger)

	api := router.Group("/api")
	{
		api.POST("/register", apiHandlers.Register)
		api.POST("/login", apiHandlers.Login)

		protected := api.Group("")
		protected.Use(AuthMiddleware(authService, logger))
		{
			protected.POST("/chatrooms", roomHandlers.CreateChatroom)
			protected.GET("/chatrooms", roomHandlers.ListChatrooms)
			protected.GET("/chatrooms/:id", roomHandlers.GetChatroom)
			protected.POST("/chatrooms/:id/members", roomHandlers.AddMember)
			protected.DELETE("/chatrooms/:id/members/:userID", roomHandlers.RemoveMember)
			protected.GET("/chatrooms/:id/messages", roomHandlers.ListMessages)
			protected.POST("/chatrooms/:id/messages", roomHandlers.CreateMessage)
			protected.DELETE("/chat-messages/:id", roomHandlers.DeleteMessage)

			protected.POST("/emails", emailHandlers.CreateEmail)
			protected.GET("/emails", emailHandlers.ListEmails)
			protected.GET("/emails/inbox", emailHandlers.Inbox)
			protected.GET("/emails/sent", emailHandlers.Sent)
			protected.GET("/emails/drafts", emailHandlers.Drafts)
			protected.GET("/emails/archived", emailHandlers.Archived)
			protected.GET("/emails/:id", emailHandlers.GetEmail)
			protected.PATCH("/emails/:id/read", emailHandlers.MarkEmailRead)
			protected.PATCH("/emails/:id/draft", emailHandlers.MarkEmailDraft)
			protected.PATCH("/emails/:id/archive", emailHandlers.ArchiveEmail)
			protected.PATCH("/emails/:id/delete", emailHandlers.DeleteEmail)
			protected.PATCH("/emails/:id/schedule", emailHandlers.ScheduleEmail)

			protected.GET("/notifications", notifHandlers.ListNotifications)
			protected.PATCH("/notifications/:id/read", notifHandlers.MarkNotificationRead)
		}
	}

	return router
}

func healthHandler(c *gin.Context) {
	c.JSON(stdhttp.StatusOK, gin.H{"status": "ok"})
}
