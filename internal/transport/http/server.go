package http

import (
	"github.com/gin-gonic/gin"

	"docvoice/internal/bootstrap"
	"docvoice/internal/transport/http/handler"
	"docvoice/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	authHandler := handler.NewAuthHandler(app.AuthService)
	chatHandler := handler.NewChatHandler(app.ChatService)
	documentHandler := handler.NewDocumentHandler(app.IngestService)
	leadHandler := handler.NewLeadHandler(app.LeadService)
	settingsHandler := handler.NewSettingsHandler(app.SettingsService)
	voiceHandler := handler.NewVoiceHandler(app.VoiceService)
	liveHandler := handler.NewLiveHandler(
		app.Gemini,
		app.ChatService,
		app.SettingsService,
		app.Config.Live,
	)

	router.GET("/healthz", healthHandler.Check)

	v1 := router.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", middleware.AuthJWT(app.Config.Auth.JWTSecret), authHandler.Me)

	// visitor surface, no account required
	chatGroup := v1.Group("/chat")
	chatGroup.POST("/sessions", chatHandler.CreateSession)
	chatGroup.POST("/messages", chatHandler.SendMessage)
	chatGroup.POST("/report", chatHandler.RequestReport)
	chatGroup.GET("/history", chatHandler.GetHistory)

	voiceGroup := v1.Group("/voice")
	voiceGroup.POST("/transcribe", voiceHandler.Transcribe)
	voiceGroup.POST("/speak", voiceHandler.Speak)
	voiceGroup.GET("/live", liveHandler.Serve)

	v1.GET("/settings", settingsHandler.Get)
	v1.GET("/settings/changed", settingsHandler.Changed)

	// administrative surface
	admin := v1.Group("/admin")
	admin.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	admin.POST("/documents", documentHandler.Upload)
	admin.GET("/documents", documentHandler.List)
	admin.GET("/documents/:id", documentHandler.Get)
	admin.DELETE("/documents/:id", documentHandler.Delete)
	admin.PUT("/documents/:id/tags", documentHandler.UpdateTags)
	admin.GET("/documents/:id/chunks", documentHandler.ListChunks)
	admin.PUT("/chunks/:id", documentHandler.UpdateChunk)
	admin.GET("/leads", leadHandler.List)
	admin.PUT("/settings", settingsHandler.Save)

	return router
}
