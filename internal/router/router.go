package router

import (
	"github.com/OrderlyNetwork/aden/internal/handler/auth"
	"github.com/OrderlyNetwork/aden/internal/handler/campaign"
	"github.com/OrderlyNetwork/aden/internal/handler/stream"
	"github.com/OrderlyNetwork/aden/internal/middleware"
	"github.com/gin-gonic/gin"
)

type ApiRouter struct {
	authHandler     *auth.Handler
	campaignHandler *campaign.Handler
	streamHandler   *stream.Handler
}

func NewApiRouter(authHandler *auth.Handler, campaignHandler *campaign.Handler, streamHandler *stream.Handler) *ApiRouter {
	return &ApiRouter{authHandler: authHandler, campaignHandler: campaignHandler, streamHandler: streamHandler}
}

func (api *ApiRouter) Load(g *gin.Engine) {

	base := g.Group("/api/v1")

	c := base.Group("/campaign")
	{
		// 活动信息与倒计时
		c.GET("/info", api.campaignHandler.InfoGet())
		// 排行榜分页
		c.GET("/leaderboard", api.campaignHandler.LeaderboardGet())
		// 排行榜实时推送
		c.GET("/ws", api.streamHandler.ServeWS)
	}

	// 管理端会话
	base.POST("/admin/login", api.authHandler.Login())
	base.POST("/admin/logout", middleware.AuthToken(), api.authHandler.Logout())

	admin := base.Group("/admin/campaign", middleware.AuthAdmin(), middleware.AntiDuplicateMiddleware())
	{
		admin.GET("/list", api.campaignHandler.ListGet())
		admin.POST("", api.campaignHandler.Upsert())
		admin.DELETE("", api.campaignHandler.Delete())
	}
}
