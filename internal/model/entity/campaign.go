package entity

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/plugin/soft_delete"
)

// Campaign 交易活动登记表
// Id直接使用Orderly侧的campaign_id，两边不做映射
type Campaign struct {
	Id      int64  `gorm:"primaryKey;column:id" json:"id"`
	Title   string `gorm:"size:200;not null;column:title;comment:活动标题" json:"title"`
	RuleUrl string `gorm:"size:500;column:rule_url;comment:活动规则链接" json:"rule_url"`

	// 活动起止时间，毫秒时间戳
	StartTime int64 `gorm:"column:start_time;comment:开始时间(ms)" json:"start_time"`
	EndTime   int64 `gorm:"column:end_time;comment:结束时间(ms)" json:"end_time"`

	// 奖池配置，按名次区间的奖励列表
	PrizePool datatypes.JSON `gorm:"column:prize_pool;comment:奖池配置" json:"prize_pool"`

	// 排行榜口径
	RoiMinVolume      float64        `gorm:"column:roi_min_volume;comment:ROI榜最小成交量" json:"roi_min_volume"`
	ExcludedAddresses datatypes.JSON `gorm:"column:excluded_addresses;comment:不参与排行的地址" json:"excluded_addresses"`

	IsDeleted soft_delete.DeletedAt `gorm:"softDelete:flag;column:is_deleted" json:"-"`
	UpdatedAt time.Time             `gorm:"autoUpdateTime;column:updated_at" json:"updated_at"`
	CreatedAt time.Time             `gorm:"autoCreateTime;column:created_at" json:"created_at"`
}

// TableName 可以显式指定表名
func (Campaign) TableName() string {
	return "campaign"
}
