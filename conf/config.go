package conf

import (
	"fmt"
	"os"
	"time"

	"github.com/OrderlyNetwork/aden/pkg/orderly/rest"
	"gopkg.in/yaml.v3"
)

// 配置加载（远程API地址、活动参数等）

type Db struct {
	DbName   string `yaml:"dbname"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// OrderlyConfig 远程排行榜数据源（Orderly公共API）
type OrderlyConfig struct {
	ApiURL   string `yaml:"api-url"`   // https://api.orderly.org
	BrokerId string `yaml:"broker-id"` // aden
}

// CampaignConfig 交易大赛排行榜参数
type CampaignConfig struct {
	PageSize        int     `yaml:"page-size"`         // 每页展示条数，默认10
	WindowSize      int     `yaml:"window-size"`       // 单次远程拉取的窗口大小，默认500（API上限）
	RoiMinVolume    float64 `yaml:"roi-min-volume"`    // ROI榜的交易量门槛，默认100000
	FetchSpacingMs  int64   `yaml:"fetch-spacing-ms"`  // 连续拉取多页时的间隔（毫秒），防止打爆上游
	RefreshEverySec int64   `yaml:"refresh-every-sec"` // 定时刷新间隔（秒）

	// 运营排除的内部/测试账户地址
	ExcludedAddresses []string `yaml:"excluded-addresses"`
}

func (c CampaignConfig) FetchSpacing() time.Duration {
	return time.Duration(c.FetchSpacingMs) * time.Millisecond
}

func (c CampaignConfig) RefreshEvery() time.Duration {
	return time.Duration(c.RefreshEverySec) * time.Second
}

type LogConfig struct {
	Level      string `yaml:"level"`
	FileName   string `yaml:"file-name"`
	TimeFormat string `yaml:"time-format"`
	MaxSize    int    `yaml:"max-size"`
	MaxBackups int    `yaml:"max-backups"`
	MaxAge     int    `yaml:"max-age"`
	Compress   bool   `yaml:"compress"`
	LocalTime  bool   `yaml:"local-time"`
	Console    bool   `yaml:"console"`
}

// RedisConfig is used to configure redis
type RedisConfig struct {
	Addr         string `yaml:"address"`
	Password     string `yaml:"password"`
	Db           int    `yaml:"db"`
	PoolSize     int    `yaml:"pool-size"`
	MinIdleConns int    `yaml:"min-idle-conns"`
	IdleTimeout  int    `yaml:"idle-timeout"`
}

// AdminConfig 管理端登录账号，运营后台只有一个账号
type AdminConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type JwtConfig struct {
	Secret                  string `yaml:"secret"`
	JwtTtl                  int64  `yaml:"ttl"`              // token 有效期（秒）
	JwtBlacklistGracePeriod int64  `yaml:"blacklistperiod" ` // 黑名单宽限时间（秒）
}

type Config struct {
	AppName      string `yaml:"app_name"`
	Listen       string `yaml:"listen"`
	Mode         string `yaml:"mode"`
	Language     string `yaml:"language"`
	MaxPingCount int    `yaml:"max-ping-count"`
	ExternalURL  string `yaml:"external_url"`

	Orderly  OrderlyConfig  `yaml:"orderly"`
	Campaign CampaignConfig `yaml:"campaign"`
	Db       `yaml:"database"`
	Log      LogConfig   `yaml:"log"`
	Jwt      JwtConfig   `yaml:"jwt"`
	Admin    AdminConfig `yaml:"admin"`
	Redis    RedisConfig `yaml:"redis"`
}

var AppConfig Config

func LoadConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("Read config file error %w", err)
	}
	if err := yaml.Unmarshal(data, &AppConfig); err != nil {
		return fmt.Errorf("Unmarshal config yaml error: %w", err)
	}
	applyCampaignDefaults(&AppConfig.Campaign)
	return nil
}

// 活动参数缺省值，和产品确认过的门槛写在这里，不散落在代码里
func applyCampaignDefaults(c *CampaignConfig) {
	if c.PageSize <= 0 {
		c.PageSize = 10
	}
	// 窗口不能超过远程单页上限
	if c.WindowSize <= 0 || c.WindowSize > rest.MaxRecordsPerPage {
		c.WindowSize = rest.MaxRecordsPerPage
	}
	if c.RoiMinVolume <= 0 {
		c.RoiMinVolume = 100000
	}
	if c.FetchSpacingMs <= 0 {
		c.FetchSpacingMs = 200
	}
	if c.RefreshEverySec <= 0 {
		c.RefreshEverySec = 60
	}
}
