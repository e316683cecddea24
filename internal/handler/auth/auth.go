package auth

import (
	"fmt"
	"time"

	"github.com/OrderlyNetwork/aden/conf"
	"github.com/OrderlyNetwork/aden/internal/consts"
	"github.com/OrderlyNetwork/aden/internal/model"
	"github.com/OrderlyNetwork/aden/pkg/errors"
	"github.com/OrderlyNetwork/aden/pkg/errors/ecode"
	"github.com/OrderlyNetwork/aden/pkg/jwt"
	"github.com/OrderlyNetwork/aden/pkg/response"
	"github.com/OrderlyNetwork/aden/pkg/validator"
	"github.com/gin-gonic/gin"
)

// 管理端的登录登出，签发和吊销管理员token

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// Login 校验运营账号，签发管理员token
// POST /api/v1/admin/login
func (h *Handler) Login() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req model.AdminLoginReq
		if err := ctx.ShouldBindJSON(&req); err != nil {
			response.JSON(ctx, errors.WithCode(ecode.ValidateErr, validator.Translate(err)), nil)
			return
		}

		admin := conf.AppConfig.Admin
		if admin.Username == "" || req.Username != admin.Username || req.Password != admin.Password {
			response.RequireAuthErr(ctx, fmt.Errorf("invalid credentials"))
			return
		}

		expireAt := time.Now().Add(time.Duration(conf.AppConfig.Jwt.JwtTtl) * time.Second)
		claims := jwt.BuildClaims(expireAt, 1, 0, true)
		token, err := jwt.GenToken(claims, conf.AppConfig.Jwt.Secret)
		if err != nil {
			response.JSON(ctx, errors.Wrap(err, ecode.Unknown, "sign token failed"), nil)
			return
		}
		response.JSON(ctx, nil, &model.AdminLoginRes{Token: token, ExpireAt: expireAt.UnixMilli()})
	}
}

// Logout 当前token进黑名单，剩余有效期内不可再用
// POST /api/v1/admin/logout
func (h *Handler) Logout() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := ctx.GetString(consts.JWTTokenCtx)
		if token != "" {
			ttl := time.Duration(conf.AppConfig.Jwt.JwtTtl) * time.Second
			if err := jwt.JoinBlackList(ctx, token, ttl); err != nil {
				response.JSON(ctx, errors.Wrap(err, ecode.Unknown, "logout failed"), nil)
				return
			}
		}
		response.JSON(ctx, nil, nil)
	}
}
