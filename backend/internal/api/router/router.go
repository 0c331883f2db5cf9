package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"staffhub/backend/config"
	"staffhub/backend/internal/api/handler"
	"staffhub/backend/internal/api/middleware"
	"staffhub/backend/internal/dto"
	"staffhub/backend/internal/model"
	"staffhub/backend/pkg/jwt"
	"staffhub/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	dto.RegisterValidators()

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(&cfg.Server.CORS))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes, map[string]int64{
		"POST /api/v1/rosters/:id/clock": cfg.Server.MaxUploadBodyBytes,
		"POST /api/v1/requests":          cfg.Server.MaxUploadBodyBytes,
	}))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	consultantOnly := middleware.RoleAuth(model.RoleConsultant, model.RoleRoot)
	candidateOnly := middleware.RoleAuth(model.RoleCandidate)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		v1.POST("/auth/login", middleware.RateLimit(rdb, 10, time.Minute), h.Auth.Login)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)

			// 项目、班次与排班（顾问维护，候选人只读自己所在项目）
			projects := authorized.Group("/projects")
			{
				projects.POST("", consultantOnly, h.Project.Create)
				projects.GET("/:id", h.Project.Get)
				projects.POST("/:id/managers", consultantOnly, h.Project.AddManager)
				projects.POST("/:id/shifts", consultantOnly, h.Shift.Create)
				projects.GET("/:id/shifts", h.Shift.List)
				projects.POST("/:id/assign", consultantOnly, h.Roster.Assign)
				projects.GET("/:id/rosters", h.Roster.ListByProject)
				projects.GET("/:id/requests", consultantOnly, h.Request.ListByProject)
				projects.GET("/:id/attendance/export", consultantOnly, h.Report.ExportAttendance)
			}

			authorized.DELETE("/shifts/:id", consultantOnly, h.Shift.Archive)

			rosters := authorized.Group("/rosters")
			{
				rosters.GET("/me", candidateOnly, h.Roster.ListMine)
				rosters.POST("/:id/clock", candidateOnly, middleware.RateLimitByPrincipal(rdb, 20, time.Minute), h.Roster.Clock)
				rosters.GET("/:id/clock-in-image", h.Roster.ClockInImage)
				rosters.DELETE("/:id", consultantOnly, h.Roster.Delete)
			}

			// 申请与审批
			requests := authorized.Group("/requests")
			{
				requests.POST("", candidateOnly, h.Request.Submit)
				requests.GET("/me", candidateOnly, h.Request.ListMine)
				requests.GET("/:id", h.Request.Get)
				requests.POST("/:id/approve", consultantOnly, h.Request.Approve)
				requests.POST("/:id/reject", consultantOnly, h.Request.Reject)
				requests.POST("/:id/cancel", candidateOnly, h.Request.Cancel)
			}
		}
	}

	return r
}
