package service

import (
	"github.com/gin-gonic/gin"

	"github.com/insightpilot/insightpilot/app/core"
	"github.com/insightpilot/insightpilot/app/response"
	"github.com/insightpilot/insightpilot/cmd/service/handler"
	"github.com/insightpilot/insightpilot/cmd/service/middleware"
	"github.com/insightpilot/insightpilot/pkg/metrics"
)

func serve(core *core.Core) {
	httpSrv := &handler.HttpSrv{
		Core:   core,
		Engine: core.HttpEngine(),
	}
	setupHttpRouter(httpSrv)

	core.HttpEngine().Run(core.Cfg().Addr)
}

func GetIPLimitBuilder(appCore *core.Core) middleware.LimiterFunc {
	return func(key string) gin.HandlerFunc {
		return middleware.UseLimit(appCore, key, func(c *gin.Context) string {
			return c.ClientIP()
		})
	}
}

func GetUserLimitBuilder(appCore *core.Core) middleware.LimiterFunc {
	return func(key string) gin.HandlerFunc {
		return middleware.UseLimit(appCore, key, func(c *gin.Context) string {
			return c.GetHeader("X-User-ID")
		})
	}
}

func setupHttpRouter(s *handler.HttpSrv) {
	userLimit := GetUserLimitBuilder(s.Core)
	ipLimit := GetIPLimitBuilder(s.Core)

	s.Engine.Use(gin.Recovery())
	s.Engine.GET("/metrics", metrics.DefaultExportHandler())

	s.Engine.Use(middleware.I18n(), response.NewResponse())
	s.Engine.Use(middleware.Cors)

	apiV1 := s.Engine.Group("/api/v1")
	{
		authed := apiV1.Group("")
		authed.Use(middleware.Authorization())

		session := authed.Group("/session")
		{
			session.POST("", ipLimit("create_session"), s.CreateSession)
			session.GET("/list", s.ListSessions)
			session.PUT("/:session/name", s.RenameSession)
			session.POST("/:session/archive", s.ArchiveSession)
			session.DELETE("/:session", s.DeleteSession)

			message := session.Group("/:session/message")
			{
				message.GET("/list", s.ListMessages)
				message.GET("/:messageid", s.GetMessage)
			}

			session.POST("/:session/chat", userLimit("chat_message"), s.CreateChatMessage)

			context := session.Group("/:session/context")
			{
				context.GET("", s.GetContext)
				context.POST("", userLimit("modify_context"), s.AddContextItem)
				context.DELETE("", userLimit("modify_context"), s.RemoveContextItem)
				context.DELETE("/all", userLimit("modify_context"), s.ClearContext)
				context.POST("/validate", s.ValidateContext)
			}

			session.GET("/:session/usage", s.GetSessionUsage)
			session.GET("/:session/budget", s.GetBudgetStatus)
			session.POST("/:session/budget/optimize", s.OptimizeBudget)
		}

		item := authed.Group("/item")
		{
			item.GET("/:type/:itemid/stats", s.GetItemStats)
		}
	}
}
