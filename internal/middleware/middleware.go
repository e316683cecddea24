package middleware

import (
	"github.com/OrderlyNetwork/aden/internal/handler/ping"
	"github.com/gin-gonic/gin"
)

// Middleware 全局中间件和基础路由
type Middleware struct{}

func NewMiddleware() *Middleware {
	return &Middleware{}
}

func (m *Middleware) Load(g *gin.Engine) {
	g.Use(gin.Recovery())
	g.Use(RequestId())
	g.Use(Logger)
	g.Use(NoCache())
	g.Use(Options())
	g.Use(Secure())

	// 健康检查，启动探活也走这里
	g.GET("/ping", ping.Ping())
}
