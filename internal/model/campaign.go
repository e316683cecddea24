package model

import (
	"github.com/OrderlyNetwork/aden/internal/leaderboard"
)

// CampaignLeaderboardReq 排行榜分页请求
// address和account_id由登录用户自己携带，用于附带个人成绩
type CampaignLeaderboardReq struct {
	CampaignId int64   `form:"campaign_id" json:"campaign_id" binding:"required"`
	Metric     string  `form:"metric" json:"metric"` // volume | roi，默认volume
	Page       int     `form:"page" json:"page"`     // 从1开始，默认1
	MinVolume  float64 `form:"min_volume" json:"min_volume"`
	AccountId  string  `form:"account_id" json:"account_id"`
	Address    string  `form:"address" json:"address"`
}

// CampaignLeaderboardRes 一页排行榜，rows内名次已按可见榜单重算
type CampaignLeaderboardRes struct {
	CampaignId int64  `json:"campaign_id"`
	Metric     string `json:"metric"`
	UpdatedAt  int64  `json:"updated_at"` // 毫秒时间戳

	leaderboard.DisplayPage
}

// PrizeTier 奖池中一个名次区间的奖励
type PrizeTier struct {
	FromRank int     `json:"from_rank"`
	ToRank   int     `json:"to_rank"`
	Amount   float64 `json:"amount"`
	Token    string  `json:"token"`
}

// Countdown 距活动开始或结束的剩余时间
type Countdown struct {
	Days    int64 `json:"days"`
	Hours   int64 `json:"hours"`
	Minutes int64 `json:"minutes"`
	Seconds int64 `json:"seconds"`
}

type CampaignInfoReq struct {
	CampaignId int64 `form:"campaign_id" json:"campaign_id" binding:"required"`
}

// CampaignInfoRes 活动基础信息加上阶段和倒计时
type CampaignInfoRes struct {
	CampaignId int64       `json:"campaign_id"`
	Title      string      `json:"title"`
	RuleUrl    string      `json:"rule_url"`
	StartTime  int64       `json:"start_time"`
	EndTime    int64       `json:"end_time"`
	Phase      string      `json:"phase"` // upcoming | active | ended
	Countdown  *Countdown  `json:"countdown,omitempty"`
	PrizePool  []PrizeTier `json:"prize_pool"`
}

// CampaignUpsertReq 管理端创建或更新活动
type CampaignUpsertReq struct {
	CampaignId        int64       `json:"campaign_id" binding:"required"`
	Title             string      `json:"title" binding:"required"`
	RuleUrl           string      `json:"rule_url"`
	StartTime         int64       `json:"start_time" binding:"required"`
	EndTime           int64       `json:"end_time" binding:"required,gtfield=StartTime"`
	PrizePool         []PrizeTier `json:"prize_pool"`
	RoiMinVolume      float64     `json:"roi_min_volume"`
	ExcludedAddresses []string    `json:"excluded_addresses"`
}
