package router

import (
	"github.com/huoyun-next/internal/config"
	"github.com/huoyun-next/internal/constants"
	realtimehandlers "github.com/huoyun-next/internal/http/handlers/realtime"
	requesterhandlers "github.com/huoyun-next/internal/http/handlers/requester"
	transporterhandlers "github.com/huoyun-next/internal/http/handlers/transporter"
	"github.com/huoyun-next/internal/logger"
	"github.com/huoyun-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按货主/承运方分组）
	requesterHandler := requesterhandlers.New(c)
	transporterHandler := transporterhandlers.New(c)
	realtimeHandler := realtimehandlers.New(c)

	createOrderRule := RateLimitRule{
		Route:         "orders_create",
		WindowSeconds: cfg.Security.APIRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.APIRateLimit.MaxRequests,
	}
	acceptRule := RateLimitRule{
		Route:         "units_accept",
		WindowSeconds: cfg.Security.APIRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.APIRateLimit.MaxRequests,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组（全部需要鉴权）
	api := r.Group("/api")
	api.Use(JWTAuthMiddleware(cfg.JWT.SecretKey))
	{
		// 实时通道：货主与承运方共用
		api.GET("/ws", realtimeHandler.Serve)

		// 货主接口
		user := api.Group("")
		user.Use(RequireRole(constants.RoleUser))
		{
			user.POST("/orders", RateLimitMiddleware(c.Store, createOrderRule, KeyBySubject), requesterHandler.CreateOrder)
			user.GET("/orders", requesterHandler.ListOrders)
			user.GET("/orders/:id", requesterHandler.GetOrder)
			user.POST("/orders/:id/cancel", requesterHandler.CancelOrder)
		}

		// 承运方接口
		carrier := api.Group("")
		carrier.Use(RequireRole(constants.RoleTransporter))
		{
			carrier.GET("/truck-requests/open", transporterHandler.ListOpenUnits)
			carrier.POST("/truck-requests/:id/accept", RateLimitMiddleware(c.Store, acceptRule, KeyBySubject), transporterHandler.AcceptUnit)
			carrier.POST("/availability", transporterHandler.ToggleAvailability)
			carrier.POST("/presence/heartbeat", transporterHandler.Heartbeat)
			carrier.GET("/trips", transporterHandler.ListTrips)
			carrier.GET("/trips/:trip_id", transporterHandler.GetTrip)
			carrier.POST("/trips/:trip_id/status", transporterHandler.UpdateTripStatus)
		}
	}

	// 健康检查
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
