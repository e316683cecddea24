package middleware

import (
	"fmt"
	"strings"

	"github.com/OrderlyNetwork/aden/conf"
	"github.com/OrderlyNetwork/aden/internal/consts"
	"github.com/OrderlyNetwork/aden/pkg/jwt"
	"github.com/OrderlyNetwork/aden/pkg/response"
	"github.com/gin-gonic/gin"
)

// 请求头的形式为 Authorization: Bearer token
const authorizationHeader = "Authorization"

// AuthToken 鉴权，验证用户token是否有效
func AuthToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, tokenStr, err := parseRequestToken(c)
		if err != nil {
			response.RequireAuthErr(c, err)
			c.Abort()
			return
		}

		c.Set(consts.UserID, claims.UserId)
		c.Set(consts.JWTTokenCtx, tokenStr)
		c.Next()
	}
}

// AuthAdmin 管理端鉴权，除token有效外还要求管理员身份
func AuthAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, tokenStr, err := parseRequestToken(c)
		if err != nil {
			response.RequireAuthErr(c, err)
			c.Abort()
			return
		}
		if !claims.IsAdministrator() {
			response.RequireAuthErr(c, fmt.Errorf("administrator required"))
			c.Abort()
			return
		}

		c.Set(consts.UserID, claims.UserId)
		c.Set(consts.JWTTokenCtx, tokenStr)
		c.Next()
	}
}

func parseRequestToken(c *gin.Context) (*jwt.CustomClaims, string, error) {
	tokenStr, err := getJwtFromHeader(c)
	if err != nil {
		return nil, "", err
	}
	if jwt.IsInBlackList(c, tokenStr) {
		return nil, "", fmt.Errorf("token revoked")
	}
	claims, err := jwt.ParseToken(tokenStr, conf.AppConfig.Jwt.Secret)
	if err != nil {
		return nil, "", err
	}
	if claims == nil {
		return nil, "", fmt.Errorf("invalid token")
	}
	return claims, tokenStr, nil
}

func getJwtFromHeader(c *gin.Context) (string, error) {
	aHeader := c.Request.Header.Get(authorizationHeader)
	if len(aHeader) == 0 {
		return "", fmt.Errorf("token is empty")
	}
	strs := strings.SplitN(aHeader, " ", 2)
	if len(strs) != 2 || strs[0] != "Bearer" {
		return "", fmt.Errorf("token 不符合规则")
	}
	return strs[1], nil
}
