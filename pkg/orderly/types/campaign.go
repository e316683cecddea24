package types

// Orderly公共活动接口的返回结构
// https://api.orderly.org/v1/public/campaign/ranking
// https://api.orderly.org/v1/public/campaign/user

// RankingRow 排行榜中一个参赛者在当前活动下的成绩
type RankingRow struct {
	AccountId             string  `json:"account_id"`
	Address               string  `json:"address"`
	BrokerId              string  `json:"broker_id"`
	Volume                float64 `json:"volume"`
	Pnl                   float64 `json:"pnl"`
	TotalDepositAmount    float64 `json:"total_deposit_amount"`
	TotalWithdrawalAmount float64 `json:"total_withdrawal_amount"`
	StartAccountValue     float64 `json:"start_account_value"`
	EndAccountValue       float64 `json:"end_account_value"`
	// 收益率，小数形式（0.05 = 5%），展示层才乘100
	Roi float64 `json:"roi"`
}

type RankingMeta struct {
	Total          int64 `json:"total"`
	RecordsPerPage int   `json:"records_per_page"`
	CurrentPage    int   `json:"current_page"`
}

type RankingData struct {
	Meta RankingMeta  `json:"meta"`
	Rows []RankingRow `json:"rows"`
}

type RankingResponse struct {
	Success   bool        `json:"success"`
	Timestamp int64       `json:"timestamp"`
	Data      RankingData `json:"data"`
}

// UserStats 当前用户自己的活动统计，和排行榜分页相互独立
// 比排行榜行多出邀请、质押等字段
type UserStats struct {
	Volume                float64 `json:"volume"`
	Pnl                   float64 `json:"pnl"`
	FilledOrdersCount     int64   `json:"filled_orders_count"`
	UpdatedTime           int64   `json:"updated_time"`
	TotalDepositAmount    float64 `json:"total_deposit_amount"`
	TotalWithdrawalAmount float64 `json:"total_withdrawal_amount"`
	StartAccountValue     float64 `json:"start_account_value"`
	EndAccountValue       float64 `json:"end_account_value"`
	TotalStakedOrder      float64 `json:"total_staked_order"`
	TotalStakedEsorder    float64 `json:"total_staked_esorder"`
	TotalTransferIn       float64 `json:"total_transfer_in"`
	TotalTransferOut      float64 `json:"total_transfer_out"`
	NewInvitedReferee     int64   `json:"new_invited_referee"`
	NewTradedReferee      int64   `json:"new_traded_referee"`

	// 接口返回的rank仅供参考，本地会按可见榜单重新计算
	Rank *int64 `json:"rank,omitempty"`
}

type UserStatsResponse struct {
	Success   bool      `json:"success"`
	Timestamp int64     `json:"timestamp"`
	Data      UserStats `json:"data"`
}
