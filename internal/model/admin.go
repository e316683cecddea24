package model

// AdminLoginReq 管理端登录
type AdminLoginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AdminLoginRes struct {
	Token    string `json:"token"`
	ExpireAt int64  `json:"expire_at"` // 毫秒时间戳
}
