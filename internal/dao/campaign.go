package dao

import (
	"context"

	"github.com/OrderlyNetwork/aden/internal/model/entity"
)

type CampaignDao interface {
	// 创建或更新活动，按campaign_id冲突覆盖
	CampaignUpsert(ctx context.Context, campaign *entity.Campaign) error
	// 按id查询活动，不存在返回nil
	CampaignGet(ctx context.Context, campaignId int64) (*entity.Campaign, error)
	// 全部未删除的活动
	CampaignList(ctx context.Context) ([]*entity.Campaign, error)
	// 当前时间落在起止区间内的活动，刷新任务用
	CampaignListActive(ctx context.Context, nowMs int64) ([]*entity.Campaign, error)
	// 软删除
	CampaignDelete(ctx context.Context, campaignId int64) error
}
