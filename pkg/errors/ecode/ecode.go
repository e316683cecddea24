package ecode

// 业务错误码，0表示成功
const (
	Success = 0

	Unknown        = 10001
	ValidateErr    = 10002
	NotFoundErr    = 10003
	RequireAuthErr = 10004

	// 上游数据源（Orderly API）异常
	UpstreamErr = 20001
	// 请求的活动不存在或未开启
	CampaignNotFound = 20002
)

var messages = map[int]string{
	Success:          "OK",
	Unknown:          "internal error",
	ValidateErr:      "invalid request parameter",
	NotFoundErr:      "resource not found",
	RequireAuthErr:   "authentication required",
	UpstreamErr:      "upstream data source unavailable",
	CampaignNotFound: "campaign not found",
}

// Text 返回错误码的默认文案
func Text(code int) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return messages[Unknown]
}
