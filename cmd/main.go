package main

import (
	"context"
	"fmt"
	"log"
	"os"

	api "github.com/OrderlyNetwork/aden/cmd/aden"
	"github.com/OrderlyNetwork/aden/conf"
	"github.com/OrderlyNetwork/aden/internal/middleware"
	"github.com/OrderlyNetwork/aden/internal/model/entity"
	"github.com/OrderlyNetwork/aden/pkg/cache"
	"github.com/OrderlyNetwork/aden/pkg/db"
	"github.com/OrderlyNetwork/aden/pkg/logger"
)

func main() {

	// 加载配置文件
	err := conf.LoadConfig("conf/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	appCfg := conf.AppConfig
	logger.Init(appCfg.Log)

	// 环境变量优先，便于容器部署时覆盖配置文件
	dbUser := os.Getenv("DB_USER")
	dbPass := os.Getenv("DB_PASSWORD")
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbName := os.Getenv("DB_NAME")
	if dbUser == "" || dbPass == "" || dbHost == "" {
		dbUser = conf.AppConfig.Username
		dbPass = conf.AppConfig.Db.Password
		dbHost = conf.AppConfig.Host
		dbPort = conf.AppConfig.Port
		dbName = conf.AppConfig.DbName
	}

	// 初始化数据库
	datasource := db.Init(db.Config{
		User:      dbUser,
		Password:  dbPass,
		Host:      dbHost,
		Port:      dbPort,
		DBName:    dbName,
		ParseTime: true,
	})

	// 活动登记表结构
	if err := datasource.AutoMigrate(&entity.Campaign{}); err != nil {
		logger.Fatalf("campaign table migrate failed: %v", err)
	}

	redisHost := os.Getenv("REDIS_HOST")
	redisPort := os.Getenv("REDIS_PORT")
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisAddr := fmt.Sprintf("%s:%s", redisHost, redisPort)
	if redisHost == "" || redisPort == "" {
		redisAddr = conf.AppConfig.Redis.Addr
	}
	if redisPassword != "" {
		appCfg.Redis.Password = redisPassword
	}
	appCfg.Redis.Addr = redisAddr

	// 初始化redis缓存
	cache.InitRedis(appCfg.Redis)

	ctx, cancel := context.WithCancel(context.Background())

	// 创建并启动服务
	srv := api.NewServer(&appCfg)
	srv.RegisterOnShutdown(func() {
		cancel()
		if datasource != nil {
			// 关闭主库链接
			m, err := datasource.DB()
			if err == nil {
				_ = m.Close()
			}
		}

		cache.CloseRedis()
		_ = logger.Sync()
	})
	srvRouter := api.InitRouter(ctx, datasource)

	srv.Run(middleware.NewMiddleware(), srvRouter)
}
