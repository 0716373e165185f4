package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wotsapp/config"
	"wotsapp/internal/api/handler"
	"wotsapp/internal/api/middleware"
	"wotsapp/internal/model"
	"wotsapp/pkg/jwt"
	"wotsapp/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(1 << 20))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	adminOnly := middleware.RoleAuth(model.RoleAdmin)
	uniformStaff := middleware.RoleAuth(model.RoleAdmin, model.RoleUniformAdmin)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(rdb, 10, time.Minute))
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)

			// 在位状态模块
			status := authorized.Group("/status")
			{
				status.GET("/me", h.Status.GetOwn)
				status.GET("/personnel", h.Status.PersonnelWithStatus)
				status.GET("/history", adminOnly, h.Status.History)
				status.POST("/sign-out", h.Status.SignOut)
				status.POST("/sick-call", h.Status.SickCall)
				status.PUT("/stage", h.Status.UpdateStage)
				status.POST("/sign-in", h.Status.SignIn)
				status.POST("/break-free", h.Status.BreakFree)
				status.POST("/bulk-sign-in", adminOnly, h.Status.AdminBulkSignIn)
			}

			// 日常外出申请模块
			passRequests := authorized.Group("/pass-requests")
			{
				passRequests.POST("", h.PassRequest.Create)
				passRequests.GET("/mine", h.PassRequest.ListOwn)
				passRequests.POST("/:id/cancel", h.PassRequest.Cancel)
				passRequests.GET("", adminOnly, h.PassRequest.ListByStatus)
				passRequests.GET("/pending-count", adminOnly, h.PassRequest.PendingCount)
				passRequests.POST("/:id/approve", adminOnly, h.PassRequest.Approve)
				passRequests.POST("/:id/reject", adminOnly, h.PassRequest.Reject)
				passRequests.POST("/bulk-approve", adminOnly, h.PassRequest.BulkApprove)
				passRequests.POST("/bulk-reject", adminOnly, h.PassRequest.BulkReject)
			}

			// 周末外宿申请模块
			libertyRequests := authorized.Group("/liberty-requests")
			{
				libertyRequests.POST("", h.LibertyRequest.Create)
				libertyRequests.GET("/mine", h.LibertyRequest.ListOwn)
				libertyRequests.POST("/:id/cancel", h.LibertyRequest.Cancel)
				libertyRequests.GET("", adminOnly, h.LibertyRequest.ListByStatus)
				libertyRequests.GET("/pending-count", adminOnly, h.LibertyRequest.PendingCount)
				libertyRequests.POST("/:id/approve", adminOnly, h.LibertyRequest.Approve)
				libertyRequests.POST("/:id/reject", adminOnly, h.LibertyRequest.Reject)
				libertyRequests.POST("/bulk-approve", adminOnly, h.LibertyRequest.BulkApprove)
				libertyRequests.POST("/bulk-reject", adminOnly, h.LibertyRequest.BulkReject)
			}

			// 换班申请模块
			swapRequests := authorized.Group("/swap-requests")
			{
				swapRequests.POST("", h.SwapRequest.Create)
				swapRequests.GET("/mine", h.SwapRequest.ListOwn)
				swapRequests.GET("/targets", h.SwapRequest.ListSwapTargets)
				swapRequests.POST("/:id/cancel", h.SwapRequest.Cancel)
				swapRequests.GET("", adminOnly, h.SwapRequest.ListByStatus)
				swapRequests.GET("/pending-count", adminOnly, h.SwapRequest.PendingCount)
				swapRequests.POST("/:id/approve", adminOnly, h.SwapRequest.Approve)
				swapRequests.POST("/:id/reject", adminOnly, h.SwapRequest.Reject)
				swapRequests.POST("/bulk-approve", adminOnly, h.SwapRequest.BulkApprove)
				swapRequests.POST("/bulk-reject", adminOnly, h.SwapRequest.BulkReject)
			}

			// 值班表模块
			schedule := authorized.Group("/schedule")
			{
				schedule.GET("", h.Schedule.List)
				schedule.GET("/mine", h.Schedule.ListMine)
				schedule.GET("/:date", h.Schedule.GetByDate)
				schedule.PUT("", adminOnly, h.Schedule.Upsert)
				schedule.DELETE("/:date", adminOnly, h.Schedule.Delete)
			}

			// 着装建议模块。pending-count 不设角色门槛：无权限的调用方拿 0
			weather := authorized.Group("/weather/recommendations")
			{
				weather.GET("/pending-count", h.Weather.PendingCount)
				weather.POST("", uniformStaff, h.Weather.CreateRecommendation)
				weather.GET("/pending", uniformStaff, h.Weather.ListPending)
				weather.POST("/:id/approve", uniformStaff, h.Weather.Approve)
				weather.POST("/:id/reject", uniformStaff, h.Weather.Reject)
			}

			// 站内通知模块
			notifications := authorized.Group("/notifications")
			{
				notifications.GET("", h.Notification.List)
				notifications.GET("/unread-count", h.Notification.UnreadCount)
				notifications.PUT("/:id/read", h.Notification.MarkRead)
				notifications.PUT("/read-all", h.Notification.MarkAllRead)
			}

			// 身份键漂移清理工具
			cleanup := authorized.Group("/cleanup")
			cleanup.Use(adminOnly)
			{
				cleanup.GET("/preview", h.Cleanup.Preview)
				cleanup.POST("/apply", h.Cleanup.Apply)
			}

			// 导出模块
			export := authorized.Group("/export")
			export.Use(adminOnly)
			{
				export.GET("/status-history", h.Export.ExportStatusHistory)
				export.GET("/schedule", h.Export.ExportSchedule)
			}
		}
	}

	return r
}

