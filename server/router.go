package server

import (
	"time"

	"vault/infrastructure/realtime"
	httpHandler "vault/interfaces/http"
	"vault/interfaces/middleware"
	"vault/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterOptions struct {
	Session      middleware.SessionOptions
	AllowOrigins []string
}

func InitiateRouter(
	videoHandler httpHandler.IVideoHandler,
	healthHandler httpHandler.IHealthHandler,
	sessions usecase.ISessionUsecase,
	hub *realtime.Hub,
	opts RouterOptions,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	if len(opts.AllowOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     opts.AllowOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	router.SetHTMLTemplate(httpHandler.PageTemplate())

	router.GET("/healthz", healthHandler.Healthz)

	page := router.Group("/")
	page.Use(middleware.Session(sessions, opts.Session))
	{
		page.GET("/", videoHandler.Index)
		page.POST("/videos", videoHandler.Submit)
		page.POST("/videos/:videoId/toggle", videoHandler.Toggle)
		page.POST("/refresh", videoHandler.Refresh)
		if hub != nil {
			page.GET("/events", hub.Serve)
		}
	}

	api := router.Group("api")
	api.Use(middleware.Session(sessions, opts.Session))
	{
		api.GET("/state", videoHandler.State)
		api.POST("/videos", videoHandler.Submit)
		api.POST("/videos/:videoId/toggle", videoHandler.Toggle)
		api.POST("/refresh", videoHandler.Refresh)
	}

	return router
}
