package routes

import (
	"topvalidation-http-service/config"
	"topvalidation-http-service/controllers"
	_ "topvalidation-http-service/docs"
	"topvalidation-http-service/middleware"
	"topvalidation-http-service/services/container"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// SetupRouter 初始化并返回配置好的路由
func SetupRouter(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// 初始化 Gin
	r := gin.Default()

	// 添加 CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", cfg.FrontendURL)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, Accept, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})
	// 创建服务容器
	serviceContainer := container.NewServiceContainer(db, cfg, nil)
	// 初始化中间件
	middleware.InitAuthMiddleware(cfg)
	// 添加 Swagger 文档路由
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 注册路由
	registerRoutes(r, serviceContainer)
	return r
}

// registerRoutes 配置所有API路由
func registerRoutes(
	r *gin.Engine,
	container *container.ServiceContainer,
) {
	// API 路由根路径
	api := r.Group("/api")
	// 注册公共路由
	registerPublicRoutes(api, container)
	// 注册需要认证的路由
	registerAuthenticatedRoutes(api, container)
}

// registerPublicRoutes 注册公共路由
func registerPublicRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	// 健康检查
	api.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// 认证路由
	api.POST("/auth/login", controllers.HandleJWTFunc(container, "login"))
	api.POST("/auth/register/company", controllers.HandleJWTFunc(container, "registerCompany"))
	api.POST("/auth/register/analyst", controllers.HandleJWTFunc(container, "registerAnalyst"))
}

// registerAuthenticatedRoutes 注册需要认证的路由
func registerAuthenticatedRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	// WebSocket信令入口
	api.GET("/ws", middleware.AuthenticateUser(), container.GetWSGateway().HandleConnection)

	// 排期路由
	schedules := api.Group("/schedules")
	schedules.POST("", middleware.AuthenticateCompany(), controllers.HandleScheduleFunc(container, "create"))
	schedules.GET("", middleware.AuthenticateAdmin(), controllers.HandleScheduleFunc(container, "getAll"))
	schedules.GET("/available", middleware.AuthenticateAnalyst(), controllers.HandleScheduleFunc(container, "getAvailable"))
	schedules.GET("/me", middleware.AuthenticateUser(), controllers.HandleScheduleFunc(container, "getMine"))
	schedules.GET("/closest", middleware.AuthenticateAnalyst(), controllers.HandleScheduleFunc(container, "getClosest"))
	schedules.PATCH("/:id/status", middleware.AuthenticateAnalyst(), controllers.HandleScheduleFunc(container, "updateStatus"))
	schedules.DELETE("/:id", middleware.AuthenticateAdmin(), controllers.HandleScheduleFunc(container, "delete"))

	// 会议路由
	meetings := api.Group("/meetings")
	meetings.POST("/initialize", middleware.AuthenticateAnalyst(), controllers.HandleMeetingFunc(container, "initialize"))
	meetings.POST("/:roomId/join", middleware.AuthenticateCompany(), controllers.HandleMeetingFunc(container, "join"))
	meetings.GET("/:roomId/validate", middleware.AuthenticateUser(), controllers.HandleMeetingFunc(container, "validate"))
	// 信令接口按用户限流，防止单个客户端刷爆中继
	meetings.POST("/:roomId/signal", middleware.AuthenticateUser(), middleware.RateLimiter(20, 40), controllers.HandleMeetingFunc(container, "signal"))
	meetings.POST("/:roomId/end", middleware.AuthenticateUser(), controllers.HandleMeetingFunc(container, "end"))
}
