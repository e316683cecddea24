package query

import (
	"context"
	"errors"

	"github.com/OrderlyNetwork/aden/internal/model/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type campaignDao struct {
	db *gorm.DB
}

// NewCampaignDao 创建 DAO
func NewCampaignDao(db *gorm.DB) *campaignDao {
	return &campaignDao{
		db: db,
	}
}

// 创建或更新活动
func (dao *campaignDao) CampaignUpsert(ctx context.Context, campaign *entity.Campaign) error {
	if campaign == nil {
		return gorm.ErrInvalidData
	}
	return dao.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(campaign).Error
}

func (dao *campaignDao) CampaignGet(ctx context.Context, campaignId int64) (*entity.Campaign, error) {
	var campaign entity.Campaign
	err := dao.db.WithContext(ctx).
		Where("id = ?", campaignId).
		First(&campaign).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &campaign, nil
}

func (dao *campaignDao) CampaignList(ctx context.Context) ([]*entity.Campaign, error) {
	var campaigns []*entity.Campaign
	err := dao.db.WithContext(ctx).
		Order("start_time DESC").
		Find(&campaigns).Error
	return campaigns, err
}

// 进行中的活动
func (dao *campaignDao) CampaignListActive(ctx context.Context, nowMs int64) ([]*entity.Campaign, error) {
	var campaigns []*entity.Campaign
	err := dao.db.WithContext(ctx).
		Where("start_time <= ? AND end_time > ?", nowMs, nowMs).
		Order("start_time DESC").
		Find(&campaigns).Error
	return campaigns, err
}

func (dao *campaignDao) CampaignDelete(ctx context.Context, campaignId int64) error {
	return dao.db.WithContext(ctx).
		Where("id = ?", campaignId).
		Delete(&entity.Campaign{}).Error
}
