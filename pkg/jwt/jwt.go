package jwt

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"

	"github.com/OrderlyNetwork/aden/conf"
	"github.com/OrderlyNetwork/aden/pkg/cache"
	"github.com/OrderlyNetwork/aden/pkg/logger"
	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v4"
)

type CustomClaims struct {
	UserId int64  `json:"user_id"`
	Sub    string `json:"sub"` // 鉴权的主题，目前有user 和 user_administrator两种
	RoleId int    `json:"role_id"`
	jwt.RegisteredClaims
}

// 是否为管理员
func (claims *CustomClaims) IsAdministrator() bool {
	arr := strings.Split(claims.Sub, "_")
	if len(arr) == 2 && arr[1] == "administrator" {
		return true
	}
	return false
}

func BuildClaims(exp time.Time, uid int64, rid int, isAdministrator bool) *CustomClaims {
	var sub = "user"
	if isAdministrator {
		sub = sub + "_administrator"
	}
	return &CustomClaims{
		UserId: uid,
		Sub:    sub,
		RoleId: rid,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    conf.AppConfig.AppName,
		},
	}
}

func GenToken(c *CustomClaims, secretKey string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	ss, err := token.SignedString([]byte(secretKey))
	return ss, err
}

// 解析jwt token
func ParseToken(jwtStr, secretKey string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(jwtStr, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, err
	} else {
		return nil, err
	}
}

func getBlackListKey(token string) string {
	sum := md5.Sum([]byte(token))
	return "jwt_black_list:" + hex.EncodeToString(sum[:])
}

// JoinBlackList token加入黑名单，登出后剩余有效期内不可再用
func JoinBlackList(ctx context.Context, token string, ttl time.Duration) error {
	return cache.GetRedisClient().Set(ctx, getBlackListKey(token), time.Now().Unix(), ttl).Err()
}

// IsInBlackList 判断token是否在黑名单中
func IsInBlackList(ctx context.Context, token string) bool {
	joinUnix, err := cache.GetRedisClient().Get(ctx, getBlackListKey(token)).Int64()
	if err != nil {
		if err != redis.Nil {
			logger.Errorf("jwt blacklist query error: %v", err)
		}
		return false
	}
	// 宽限期内的旧token仍然放行，避免并发请求批量失效
	grace := conf.AppConfig.Jwt.JwtBlacklistGracePeriod
	if time.Now().Unix()-joinUnix < grace {
		return false
	}
	return true
}
