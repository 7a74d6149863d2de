package main

import (
	"context"
	"log"
	"net/http"

	"gowa-hub/config"
	"gowa-hub/internal/cache"
	"gowa-hub/internal/handler"
	"gowa-hub/internal/service"
	"gowa-hub/internal/waclient"
	"gowa-hub/internal/ws"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

func main() {
	// Load .env (ignore the error when the file is absent, e.g. in production)
	_ = godotenv.Load()

	cfg := config.Load()

	factory := waclient.DefaultFactory()
	if factory == nil {
		log.Fatal("no chat client implementation registered; link one and call waclient.RegisterFactory")
	}

	hub := ws.NewHub()

	registry := service.NewRegistry(cfg.SessionRoot, cfg.MaxSessions, factory, hub)
	hub.SetSnapshot(registry.StatusSnapshotEvents)
	go hub.Run()

	volatile := cache.NewVolatile(cfg.MediaTTL)
	volatile.StartJanitor(cfg.MediaTTL, make(chan struct{}))

	disk, err := cache.NewDiskStore(cfg.CacheRoot)
	if err != nil {
		log.Fatalf("media cache init failed: %v", err)
	}

	h := handler.New(registry, service.NewMediaService(volatile, disk), hub)

	// Setup Echo
	e := echo.New()
	e.Use(middleware.Recover())

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: []string{
			echo.GET,
			echo.POST,
			echo.PUT,
			echo.PATCH,
			echo.DELETE,
			echo.OPTIONS,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderXRequestedWith,
			echo.HeaderAuthorization,
			"Range",
		},
		AllowCredentials: true,
	}))

	e.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(cfg.RateLimit),
				Burst:     cfg.RateBurst,
				ExpiresIn: cfg.RateWindow,
			},
		),
	}))

	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		message := "Internal Server Error"
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if msg, ok := he.Message.(string); ok {
				message = msg
			}
		}
		response := map[string]interface{}{
			"success": false,
			"error":   message,
		}
		switch code {
		case http.StatusMethodNotAllowed:
			response["message"] = "Method not allowed for this endpoint"
		case http.StatusNotFound:
			response["message"] = "Endpoint not found"
		}
		_ = c.JSON(code, response)
	}

	// Health check + websocket subscriber attach
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "chat gateway is running",
		})
	})
	e.GET("/ws", h.WebSocket)

	api := e.Group("/api")

	// Session lifecycle
	api.GET("/sessions", h.ListSessions)
	api.GET("/sessions/detected", h.DetectSessions)
	api.POST("/sessions/init", h.InitSession)
	api.POST("/sessions/destroy", h.DestroySession)
	api.POST("/sessions/restore-all", h.RestoreSessions)
	api.GET("/sessions/status", h.SessionStatus)

	// Per-session operations
	scoped := api.Group("/:tenantId/:label")
	scoped.GET("/chats", h.GetChats)
	scoped.GET("/chats/:chatId", h.GetChat)
	scoped.GET("/chats/:chatId/messages", h.GetMessages)
	scoped.POST("/chats/:chatId/messages", h.SendMessage)
	scoped.POST("/chats/:chatId/media", h.SendMedia)
	scoped.POST("/chats/:chatId/voice", h.SendVoice)
	scoped.GET("/media/:messageId", h.GetMedia)
	scoped.GET("/contacts", h.GetContacts)
	scoped.GET("/contacts/export", h.ExportContacts)

	// Bring persisted sessions back before serving traffic
	log.Println("Restoring persisted sessions...")
	if results, err := registry.RestoreAll(context.Background()); err != nil {
		log.Printf("Warning: failed to restore sessions: %v", err)
	} else {
		for _, r := range results {
			log.Printf("restore %s__%s: %s", r.TenantID, r.Label, r.Status)
		}
	}

	log.Printf("Server starting on port %s (max sessions: %d)", cfg.Port, cfg.MaxSessions)
	log.Fatal(e.Start(":" + cfg.Port))
}
