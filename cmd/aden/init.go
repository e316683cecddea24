package api

import (
	"context"

	"github.com/OrderlyNetwork/aden/conf"
	"github.com/OrderlyNetwork/aden/internal/dao/query"
	"github.com/OrderlyNetwork/aden/internal/handler/auth"
	"github.com/OrderlyNetwork/aden/internal/handler/campaign"
	"github.com/OrderlyNetwork/aden/internal/handler/stream"
	"github.com/OrderlyNetwork/aden/internal/leaderboard"
	"github.com/OrderlyNetwork/aden/internal/router"
	"github.com/OrderlyNetwork/aden/internal/service"
	"github.com/OrderlyNetwork/aden/pkg/cache"
	"github.com/OrderlyNetwork/aden/pkg/logger"
	"github.com/OrderlyNetwork/aden/pkg/orderly/rest"
	"gorm.io/gorm"
)

func InitRouter(ctx context.Context, db *gorm.DB) Router {
	appCfg := conf.AppConfig

	restClient, err := rest.NewOrderlyRestClient(appCfg.Orderly.ApiURL)
	if err != nil {
		logger.Fatalf("orderly rest client init failed: %v", err)
	}

	// 排行榜窗口缓存，排行和个人成绩都走同一个远程客户端
	agg := leaderboard.New(restClient, restClient, leaderboard.Config{
		PageSize:     appCfg.Campaign.PageSize,
		WindowSize:   appCfg.Campaign.WindowSize,
		RoiMinVolume: appCfg.Campaign.RoiMinVolume,
		FetchSpacing: appCfg.Campaign.FetchSpacing(),
	}, appCfg.Campaign.ExcludedAddresses)

	campaignDao := query.NewCampaignDao(db)
	campaignService := service.NewCampaignService(campaignDao, agg, cache.GetRedisClient(), appCfg.Campaign)

	streamHandler := stream.NewHandler()
	campaignHandler := campaign.NewHandler(campaignService)
	authHandler := auth.NewHandler()

	// 定时刷新进行中的活动并推给websocket订阅者
	go campaignService.StartRefresher(ctx, streamHandler)

	return router.NewApiRouter(authHandler, campaignHandler, streamHandler)
}
