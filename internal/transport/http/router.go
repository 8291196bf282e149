package httptransport

import (
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mailhub/backend/internal/config"
	"mailhub/backend/internal/health"
	"mailhub/backend/internal/middleware"
	"mailhub/backend/internal/monitoring"
	"mailhub/backend/internal/service"
)

// Handler 聚合所有 HTTP 处理逻辑。
type Handler struct {
	mail     *service.MailService
	accounts *service.AccountService
}

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config         *config.Config
	MailService    *service.MailService
	AccountService *service.AccountService
	HealthChecker  *health.HealthChecker
	Metrics        *monitoring.Metrics
	Logger         *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例。
func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RecoveryHandler(deps.Logger, deps.Metrics))
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.Monitoring(deps.Metrics))

	// 请求体大小限制 1MB（纯 JSON API，无附件上传）
	router.Use(middleware.BodySizeLimit(1 * 1024 * 1024))

	// CORS 配置
	corsConfig := gincors.Config{
		AllowOrigins:     deps.Config.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	// 如果允许所有来源，则需清空凭证支持。
	for _, origin := range corsConfig.AllowOrigins {
		if origin == "*" {
			corsConfig.AllowCredentials = false
			break
		}
	}
	router.Use(gincors.New(corsConfig))

	handler := &Handler{
		mail:     deps.MailService,
		accounts: deps.AccountService,
	}

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, deps.HealthChecker.CheckHealth())
	})
	router.GET("/health/live", gin.WrapF(deps.HealthChecker.LiveEndpoint))
	router.GET("/health/ready", gin.WrapF(deps.HealthChecker.ReadyEndpoint))

	// Prometheus 指标
	router.GET("/metrics", gin.WrapH(deps.Metrics.HTTPHandler()))

	// V1 API
	v1 := router.Group("/v1")
	{
		// ========== Message Routes ==========
		messageRoutes := v1.Group("/messages")
		{
			messageRoutes.GET("", handler.listMessages)       // 聚合拉取邮件列表
			messageRoutes.POST("/send", handler.sendMessage)  // 发送邮件
		}

		// ========== Account Routes ==========
		accountRoutes := v1.Group("/accounts")
		{
			accountRoutes.POST("", handler.createAccount)              // 创建账号
			accountRoutes.GET("", handler.listAccounts)                // 账号列表
			accountRoutes.GET("/:id", handler.getAccount)              // 账号详情
			accountRoutes.PUT("/:id", handler.updateAccount)           // 更新账号
			accountRoutes.DELETE("/:id", handler.deleteAccount)        // 删除账号
			accountRoutes.PATCH("/:id/toggle", handler.toggleAccount)  // 切换启用状态
			accountRoutes.POST("/:id/probe", handler.probeAccount)     // 测试连接
		}
	}

	return router
}
