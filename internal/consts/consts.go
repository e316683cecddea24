package consts

const (
	// RequestId 请求id名称
	RequestId   = "request_id"
	UserID      = "user_id"
	JWTTokenCtx = "token_ctx"
)

// 排行榜相关redis key前缀
const (
	CampaignLeaderboardPageKey = "campaign:leaderboard:page"
	CampaignInfoKey            = "campaign:info"
)

// 排序指标，对应远程API的 sort_by 参数
const (
	MetricVolume = "volume"
	MetricRoi    = "roi"
)

// 活动阶段
const (
	CampaignPhaseUpcoming = "upcoming"
	CampaignPhaseActive   = "active"
	CampaignPhaseEnded    = "ended"
)
