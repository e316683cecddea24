package service

import (
	"context"
	"fmt"
	"time"

	"github.com/OrderlyNetwork/aden/conf"
	"github.com/OrderlyNetwork/aden/internal/consts"
	"github.com/OrderlyNetwork/aden/internal/dao"
	"github.com/OrderlyNetwork/aden/internal/leaderboard"
	"github.com/OrderlyNetwork/aden/internal/model"
	"github.com/OrderlyNetwork/aden/internal/model/entity"
	"github.com/OrderlyNetwork/aden/pkg/errors"
	"github.com/OrderlyNetwork/aden/pkg/errors/ecode"
	"github.com/OrderlyNetwork/aden/pkg/logger"
	"github.com/go-redis/redis/v8"
	json "github.com/goccy/go-json"
)

// Broadcaster 排行榜刷新后的推送出口，由websocket网关实现
type Broadcaster interface {
	BroadcastLeaderboard(campaignId int64, payload interface{})
}

type CampaignService struct {
	dao dao.CampaignDao
	agg *leaderboard.Aggregator
	rc  *redis.Client
	cfg conf.CampaignConfig
}

func NewCampaignService(dao dao.CampaignDao, agg *leaderboard.Aggregator, rc *redis.Client, cfg conf.CampaignConfig) *CampaignService {
	return &CampaignService{
		dao: dao,
		agg: agg,
		rc:  rc,
		cfg: cfg,
	}
}

// LeaderboardGet 查询一页排行榜
// 匿名请求走redis短缓存，带身份的请求直接打聚合器以附带个人成绩
func (s *CampaignService) LeaderboardGet(ctx context.Context, req *model.CampaignLeaderboardReq) (*model.CampaignLeaderboardRes, error) {
	metric := req.Metric
	if metric == "" {
		metric = consts.MetricVolume
	}
	if metric != consts.MetricVolume && metric != consts.MetricRoi {
		return nil, errors.WithCode(ecode.ValidateErr, fmt.Sprintf("unknown metric: %s", metric))
	}
	page := req.Page
	if page < 1 {
		page = 1
	}

	key := leaderboard.Key{CampaignId: req.CampaignId, Metric: metric, MinVolume: req.MinVolume}
	if metric == consts.MetricRoi && key.MinVolume == 0 {
		key.MinVolume = s.roiMinVolume(ctx, req.CampaignId)
	}

	var ident *leaderboard.Identity
	if req.AccountId != "" || req.Address != "" {
		ident = &leaderboard.Identity{AccountId: req.AccountId, Address: req.Address}
	}

	// 个人成绩不能进共享缓存
	var rdsKey string
	if ident == nil && s.rc != nil {
		rdsKey = leaderboardPageCacheKey(key.CampaignId, key.Metric, key.MinVolume, page)
		bytes, err := s.rc.Get(ctx, rdsKey).Bytes()
		if err == nil {
			var cached model.CampaignLeaderboardRes
			if err = json.Unmarshal(bytes, &cached); err == nil {
				return &cached, nil
			}
		} else if err != redis.Nil {
			logger.Errorf("Redis连接异常:%v", err.Error())
		}
	}

	dp, err := s.agg.GetPage(ctx, key, page, ident)
	if errors.Is(err, leaderboard.ErrStale) {
		// 拉取期间缓存被刷新，重试一次拿新窗口
		dp, err = s.agg.GetPage(ctx, key, page, ident)
	}
	if err != nil {
		return nil, errors.Wrap(err, ecode.UpstreamErr, "campaign leaderboard unavailable")
	}

	res := &model.CampaignLeaderboardRes{
		CampaignId:  req.CampaignId,
		Metric:      metric,
		UpdatedAt:   time.Now().UnixMilli(),
		DisplayPage: *dp,
	}

	if rdsKey != "" {
		bytes, err := json.Marshal(res)
		if err == nil {
			// 10秒过期，和前端轮询周期同量级
			if err = s.rc.Set(ctx, rdsKey, bytes, time.Second*10).Err(); err != nil {
				logger.Errorf("CampaignService存储Cache失败:%v", err.Error())
			}
		}
	}
	return res, nil
}

func leaderboardPageCacheKey(campaignId int64, metric string, minVolume float64, page int) string {
	return fmt.Sprintf("%s:1:%d:%s:%g:%d", consts.CampaignLeaderboardPageKey, campaignId, metric, minVolume, page)
}

// leaderboardPageCachePattern 一个活动下全部榜单页缓存键的匹配模式
func leaderboardPageCachePattern(campaignId int64) string {
	return fmt.Sprintf("%s:1:%d:*", consts.CampaignLeaderboardPageKey, campaignId)
}

// roiMinVolume ROI榜门槛，活动登记里有配置就用登记值
func (s *CampaignService) roiMinVolume(ctx context.Context, campaignId int64) float64 {
	campaign, err := s.campaignGetCached(ctx, campaignId)
	if err != nil || campaign == nil || campaign.RoiMinVolume <= 0 {
		return s.cfg.RoiMinVolume
	}
	return campaign.RoiMinVolume
}

// CampaignInfoGet 活动基础信息、阶段与倒计时
func (s *CampaignService) CampaignInfoGet(ctx context.Context, campaignId int64) (*model.CampaignInfoRes, error) {
	campaign, err := s.campaignGetCached(ctx, campaignId)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, errors.WithCode(ecode.CampaignNotFound, fmt.Sprintf("campaign %d not found", campaignId))
	}

	res := &model.CampaignInfoRes{
		CampaignId: campaign.Id,
		Title:      campaign.Title,
		RuleUrl:    campaign.RuleUrl,
		StartTime:  campaign.StartTime,
		EndTime:    campaign.EndTime,
		PrizePool:  []model.PrizeTier{},
	}
	if len(campaign.PrizePool) > 0 {
		if err := json.Unmarshal(campaign.PrizePool, &res.PrizePool); err != nil {
			logger.Errorf("campaign %d prize pool decode failed: %v", campaignId, err)
		}
	}

	now := time.Now().UnixMilli()
	res.Phase, res.Countdown = campaignPhase(now, campaign.StartTime, campaign.EndTime)
	return res, nil
}

// campaignPhase 活动阶段和对应的倒计时目标
// 未开始倒计时到开始，进行中倒计时到结束，已结束不给倒计时
func campaignPhase(nowMs, startMs, endMs int64) (string, *model.Countdown) {
	switch {
	case nowMs < startMs:
		return consts.CampaignPhaseUpcoming, countdownTo(nowMs, startMs)
	case nowMs < endMs:
		return consts.CampaignPhaseActive, countdownTo(nowMs, endMs)
	default:
		return consts.CampaignPhaseEnded, nil
	}
}

func countdownTo(nowMs, targetMs int64) *model.Countdown {
	remain := targetMs - nowMs
	if remain < 0 {
		remain = 0
	}
	seconds := remain / 1000
	return &model.Countdown{
		Days:    seconds / 86400,
		Hours:   (seconds % 86400) / 3600,
		Minutes: (seconds % 3600) / 60,
		Seconds: seconds % 60,
	}
}

// campaignGetCached 活动登记信息的redis读穿缓存
func (s *CampaignService) campaignGetCached(ctx context.Context, campaignId int64) (*entity.Campaign, error) {
	rdsKey := fmt.Sprintf("%s:1:%d", consts.CampaignInfoKey, campaignId)
	if s.rc != nil {
		bytes, err := s.rc.Get(ctx, rdsKey).Bytes()
		if err == nil {
			var cached entity.Campaign
			if err = json.Unmarshal(bytes, &cached); err == nil {
				return &cached, nil
			}
		} else if err != redis.Nil {
			logger.Errorf("Redis连接异常:%v", err.Error())
		}
	}

	campaign, err := s.dao.CampaignGet(ctx, campaignId)
	if err != nil {
		return nil, errors.Wrap(err, ecode.Unknown, "query campaign failed")
	}
	if campaign == nil {
		return nil, nil
	}

	if s.rc != nil {
		bytes, err := json.Marshal(campaign)
		if err == nil {
			// 登记信息变化少，缓存30秒
			if err = s.rc.Set(ctx, rdsKey, bytes, time.Second*30).Err(); err != nil {
				logger.Errorf("CampaignService存储Cache失败:%v", err.Error())
			}
		}
	}
	return campaign, nil
}

// CampaignUpsert 管理端创建或更新活动
// 排行口径相关字段变化后旧窗口全部作废
func (s *CampaignService) CampaignUpsert(ctx context.Context, req *model.CampaignUpsertReq) error {
	prizePool, err := json.Marshal(req.PrizePool)
	if err != nil {
		return errors.Wrap(err, ecode.ValidateErr, "invalid prize pool")
	}
	excluded, err := json.Marshal(req.ExcludedAddresses)
	if err != nil {
		return errors.Wrap(err, ecode.ValidateErr, "invalid excluded addresses")
	}

	campaign := &entity.Campaign{
		Id:                req.CampaignId,
		Title:             req.Title,
		RuleUrl:           req.RuleUrl,
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
		PrizePool:         prizePool,
		RoiMinVolume:      req.RoiMinVolume,
		ExcludedAddresses: excluded,
	}
	if err := s.dao.CampaignUpsert(ctx, campaign); err != nil {
		return errors.Wrap(err, ecode.Unknown, "save campaign failed")
	}

	if len(req.ExcludedAddresses) > 0 {
		s.agg.AddExcluded(req.ExcludedAddresses)
	}
	s.agg.InvalidateCampaign(req.CampaignId)
	s.dropCampaignCache(ctx, req.CampaignId)
	s.dropLeaderboardPageCache(ctx, req.CampaignId)
	return nil
}

// CampaignDelete 下线活动
func (s *CampaignService) CampaignDelete(ctx context.Context, campaignId int64) error {
	if err := s.dao.CampaignDelete(ctx, campaignId); err != nil {
		return errors.Wrap(err, ecode.Unknown, "delete campaign failed")
	}
	s.agg.InvalidateCampaign(campaignId)
	s.dropCampaignCache(ctx, campaignId)
	s.dropLeaderboardPageCache(ctx, campaignId)
	return nil
}

func (s *CampaignService) dropCampaignCache(ctx context.Context, campaignId int64) {
	if s.rc == nil {
		return
	}
	rdsKey := fmt.Sprintf("%s:1:%d", consts.CampaignInfoKey, campaignId)
	if err := s.rc.Del(ctx, rdsKey).Err(); err != nil {
		logger.Errorf("campaign cache del failed: %v", err)
	}
}

// dropLeaderboardPageCache 清掉一个活动下所有指标和页码的榜单页缓存
// 排行口径变化后不能让旧页在TTL内继续对外
func (s *CampaignService) dropLeaderboardPageCache(ctx context.Context, campaignId int64) {
	if s.rc == nil {
		return
	}
	iter := s.rc.Scan(ctx, 0, leaderboardPageCachePattern(campaignId), 100).Iterator()
	for iter.Next(ctx) {
		if err := s.rc.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Errorf("leaderboard cache del failed: %v", err)
		}
	}
	if err := iter.Err(); err != nil {
		logger.Errorf("leaderboard cache scan failed: %v", err)
	}
}

// CampaignList 全部活动登记
func (s *CampaignService) CampaignList(ctx context.Context) ([]*entity.Campaign, error) {
	campaigns, err := s.dao.CampaignList(ctx)
	if err != nil {
		return nil, errors.Wrap(err, ecode.Unknown, "list campaigns failed")
	}
	return campaigns, nil
}

// StartRefresher 周期刷新进行中活动的首页榜单并推送
// 阻塞运行，ctx取消后退出
func (s *CampaignService) StartRefresher(ctx context.Context, hub Broadcaster) {
	interval := s.cfg.RefreshEvery()
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Infof("campaign refresher stopped")
			return
		case <-ticker.C:
			s.refreshActive(ctx, hub)
		}
	}
}

// refreshActive 对进行中的活动重建volume榜首页，结果推给订阅者
func (s *CampaignService) refreshActive(ctx context.Context, hub Broadcaster) {
	now := time.Now().UnixMilli()
	campaigns, err := s.dao.CampaignListActive(ctx, now)
	if err != nil {
		logger.Errorf("list active campaigns failed: %v", err)
		return
	}

	for _, campaign := range campaigns {
		s.agg.InvalidateCampaign(campaign.Id)
		// 先把共享页缓存清掉，避免刷新时读回旧页
		s.dropLeaderboardPageCache(ctx, campaign.Id)
		res, err := s.LeaderboardGet(ctx, &model.CampaignLeaderboardReq{
			CampaignId: campaign.Id,
			Metric:     consts.MetricVolume,
			Page:       1,
		})
		if err != nil {
			logger.Errorf("refresh campaign %d leaderboard failed: %v", campaign.Id, err)
			continue
		}
		if hub != nil {
			hub.BroadcastLeaderboard(campaign.Id, res)
		}
	}
}
