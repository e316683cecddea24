package service

import (
	"context"
	"path"
	"testing"

	"github.com/OrderlyNetwork/aden/conf"
	"github.com/OrderlyNetwork/aden/internal/consts"
	"github.com/OrderlyNetwork/aden/internal/leaderboard"
	"github.com/OrderlyNetwork/aden/internal/model"
	"github.com/OrderlyNetwork/aden/internal/model/entity"
	"github.com/OrderlyNetwork/aden/pkg/errors"
	"github.com/OrderlyNetwork/aden/pkg/errors/ecode"
	"github.com/OrderlyNetwork/aden/pkg/orderly/types"
)

type fakeCampaignDao struct {
	campaigns map[int64]*entity.Campaign
	upserts   int
}

func newFakeCampaignDao() *fakeCampaignDao {
	return &fakeCampaignDao{campaigns: make(map[int64]*entity.Campaign)}
}

func (f *fakeCampaignDao) CampaignUpsert(ctx context.Context, campaign *entity.Campaign) error {
	f.upserts++
	f.campaigns[campaign.Id] = campaign
	return nil
}

func (f *fakeCampaignDao) CampaignGet(ctx context.Context, campaignId int64) (*entity.Campaign, error) {
	return f.campaigns[campaignId], nil
}

func (f *fakeCampaignDao) CampaignList(ctx context.Context) ([]*entity.Campaign, error) {
	var list []*entity.Campaign
	for _, c := range f.campaigns {
		list = append(list, c)
	}
	return list, nil
}

func (f *fakeCampaignDao) CampaignListActive(ctx context.Context, nowMs int64) ([]*entity.Campaign, error) {
	var list []*entity.Campaign
	for _, c := range f.campaigns {
		if c.StartTime <= nowMs && c.EndTime > nowMs {
			list = append(list, c)
		}
	}
	return list, nil
}

func (f *fakeCampaignDao) CampaignDelete(ctx context.Context, campaignId int64) error {
	delete(f.campaigns, campaignId)
	return nil
}

type fakeRankingSrc struct {
	rows  []types.RankingRow
	calls int
}

func (f *fakeRankingSrc) CampaignRanking(ctx context.Context, campaignId int64, sortBy string, page, size int, minVolume float64) (*types.RankingResponse, error) {
	f.calls++
	start := (page - 1) * size
	end := start + size
	if start > len(f.rows) {
		start = len(f.rows)
	}
	if end > len(f.rows) {
		end = len(f.rows)
	}
	return &types.RankingResponse{
		Success: true,
		Data: types.RankingData{
			Meta: types.RankingMeta{Total: int64(len(f.rows))},
			Rows: append([]types.RankingRow(nil), f.rows[start:end]...),
		},
	}, nil
}

type fakeUserSrc struct{}

func (fakeUserSrc) CampaignUser(ctx context.Context, campaignId int64, accountId, address, sortBy string, minVolume float64) (*types.UserStatsResponse, error) {
	return &types.UserStatsResponse{Success: true}, nil
}

func testRows(n int) []types.RankingRow {
	rows := make([]types.RankingRow, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, types.RankingRow{
			Address: "0xaddr" + string(rune('a'+i)),
			Volume:  float64(1000000 - i*1000),
			Roi:     float64(i) / 100,
		})
	}
	return rows
}

func newTestService(src *fakeRankingSrc, dao *fakeCampaignDao) *CampaignService {
	agg := leaderboard.New(src, fakeUserSrc{}, leaderboard.Config{
		PageSize:     10,
		WindowSize:   500,
		RoiMinVolume: 100000,
	}, nil)
	return NewCampaignService(dao, agg, nil, conf.CampaignConfig{
		PageSize:     10,
		WindowSize:   500,
		RoiMinVolume: 100000,
	})
}

func TestLeaderboardGetDefaults(t *testing.T) {
	src := &fakeRankingSrc{rows: testRows(5)}
	s := newTestService(src, newFakeCampaignDao())

	res, err := s.LeaderboardGet(context.Background(), &model.CampaignLeaderboardReq{CampaignId: 137})
	if err != nil {
		t.Fatalf("LeaderboardGet: %v", err)
	}
	if res.Metric != consts.MetricVolume {
		t.Fatalf("default metric = %s, want volume", res.Metric)
	}
	if res.Page != 1 {
		t.Fatalf("default page = %d, want 1", res.Page)
	}
	if len(res.Rows) != 5 {
		t.Fatalf("rows = %d, want 5", len(res.Rows))
	}
}

func TestLeaderboardGetRejectsUnknownMetric(t *testing.T) {
	s := newTestService(&fakeRankingSrc{}, newFakeCampaignDao())

	_, err := s.LeaderboardGet(context.Background(), &model.CampaignLeaderboardReq{CampaignId: 137, Metric: "pnl"})
	if err == nil {
		t.Fatal("expected error for unknown metric")
	}
	if code, _ := errors.DecodeErr(err); code != ecode.ValidateErr {
		t.Fatalf("code = %d, want ValidateErr", code)
	}
}

// 两个指标各自有窗口，互不复用也互不拖累
// 一个客户端切指标不能把其他客户端正在用的窗口打掉
func TestMetricSwitchDoesNotEvictOtherMetric(t *testing.T) {
	src := &fakeRankingSrc{rows: testRows(5)}
	s := newTestService(src, newFakeCampaignDao())

	ctx := context.Background()
	if _, err := s.LeaderboardGet(ctx, &model.CampaignLeaderboardReq{CampaignId: 137, Metric: consts.MetricVolume}); err != nil {
		t.Fatalf("volume: %v", err)
	}
	if src.calls != 1 {
		t.Fatalf("remote calls = %d, want 1", src.calls)
	}
	// 另一指标是另一个键，必须重新拉取
	if _, err := s.LeaderboardGet(ctx, &model.CampaignLeaderboardReq{CampaignId: 137, Metric: consts.MetricRoi}); err != nil {
		t.Fatalf("roi: %v", err)
	}
	if src.calls != 2 {
		t.Fatalf("remote calls = %d, want 2 (no reuse across metrics)", src.calls)
	}
	// 切回volume直接命中原窗口
	if _, err := s.LeaderboardGet(ctx, &model.CampaignLeaderboardReq{CampaignId: 137, Metric: consts.MetricVolume}); err != nil {
		t.Fatalf("volume again: %v", err)
	}
	if src.calls != 2 {
		t.Fatalf("remote calls = %d, want 2 (volume window still cached)", src.calls)
	}
}

// Scan用的模式必须盖住同一活动的全部页缓存键，并且不能误伤别的活动
func TestLeaderboardPageCachePattern(t *testing.T) {
	pattern := leaderboardPageCachePattern(7)
	keys := []string{
		leaderboardPageCacheKey(7, consts.MetricVolume, 0, 1),
		leaderboardPageCacheKey(7, consts.MetricVolume, 0, 12),
		leaderboardPageCacheKey(7, consts.MetricRoi, 100000, 3),
	}
	for _, key := range keys {
		ok, err := path.Match(pattern, key)
		if err != nil {
			t.Fatalf("match %s: %v", key, err)
		}
		if !ok {
			t.Fatalf("key %s not matched by pattern %s", key, pattern)
		}
	}

	other := leaderboardPageCacheKey(77, consts.MetricVolume, 0, 1)
	if ok, _ := path.Match(pattern, other); ok {
		t.Fatalf("pattern %s wrongly matches %s", pattern, other)
	}
}

func TestCampaignInfoNotFound(t *testing.T) {
	s := newTestService(&fakeRankingSrc{}, newFakeCampaignDao())

	_, err := s.CampaignInfoGet(context.Background(), 999)
	if err == nil {
		t.Fatal("expected error for missing campaign")
	}
	if code, _ := errors.DecodeErr(err); code != ecode.CampaignNotFound {
		t.Fatalf("code = %d, want CampaignNotFound", code)
	}
}

func TestCampaignUpsertExcludesAddresses(t *testing.T) {
	rows := testRows(5)
	src := &fakeRankingSrc{rows: rows}
	dao := newFakeCampaignDao()
	s := newTestService(src, dao)

	ctx := context.Background()
	res, err := s.LeaderboardGet(ctx, &model.CampaignLeaderboardReq{CampaignId: 137})
	if err != nil {
		t.Fatalf("LeaderboardGet: %v", err)
	}
	if res.Total != 5 {
		t.Fatalf("total = %d, want 5", res.Total)
	}

	err = s.CampaignUpsert(ctx, &model.CampaignUpsertReq{
		CampaignId:        137,
		Title:             "Trading Blitz",
		StartTime:         1,
		EndTime:           2,
		ExcludedAddresses: []string{rows[0].Address},
	})
	if err != nil {
		t.Fatalf("CampaignUpsert: %v", err)
	}
	if dao.upserts != 1 {
		t.Fatalf("dao upserts = %d, want 1", dao.upserts)
	}

	res, err = s.LeaderboardGet(ctx, &model.CampaignLeaderboardReq{CampaignId: 137})
	if err != nil {
		t.Fatalf("LeaderboardGet after upsert: %v", err)
	}
	if res.Total != 4 {
		t.Fatalf("total after exclusion = %d, want 4", res.Total)
	}
	for _, r := range res.Rows {
		if r.Address == rows[0].Address {
			t.Fatal("excluded address still on leaderboard")
		}
	}
}

func TestCampaignPhase(t *testing.T) {
	start := int64(1_000_000)
	end := int64(2_000_000)

	phase, cd := campaignPhase(start-90_061_000, start, end)
	if phase != consts.CampaignPhaseUpcoming {
		t.Fatalf("phase = %s, want upcoming", phase)
	}
	if cd == nil || cd.Days != 1 || cd.Hours != 1 || cd.Minutes != 1 || cd.Seconds != 1 {
		t.Fatalf("countdown = %+v, want 1d1h1m1s", cd)
	}

	phase, cd = campaignPhase(start+1, start, end)
	if phase != consts.CampaignPhaseActive || cd == nil {
		t.Fatalf("phase = %s cd = %+v, want active with countdown", phase, cd)
	}

	phase, cd = campaignPhase(end, start, end)
	if phase != consts.CampaignPhaseEnded || cd != nil {
		t.Fatalf("phase = %s cd = %+v, want ended without countdown", phase, cd)
	}
}

func TestCountdownNeverNegative(t *testing.T) {
	cd := countdownTo(100, 50)
	if cd.Days != 0 || cd.Hours != 0 || cd.Minutes != 0 || cd.Seconds != 0 {
		t.Fatalf("countdown past target = %+v, want all zero", cd)
	}
}

func TestRoiMinVolumeFromRegistry(t *testing.T) {
	src := &fakeRankingSrc{rows: []types.RankingRow{
		{Address: "0xa", Volume: 600000, Roi: 0.1},
		{Address: "0xb", Volume: 400000, Roi: 0.2},
		{Address: "0xc", Volume: 200000, Roi: 0.3},
	}}
	dao := newFakeCampaignDao()
	dao.campaigns[137] = &entity.Campaign{Id: 137, RoiMinVolume: 500000}
	s := newTestService(src, dao)

	res, err := s.LeaderboardGet(context.Background(), &model.CampaignLeaderboardReq{
		CampaignId: 137,
		Metric:     consts.MetricRoi,
	})
	if err != nil {
		t.Fatalf("LeaderboardGet: %v", err)
	}
	// 登记的门槛50万生效，40万以下的行被截断
	if res.Total != 1 {
		t.Fatalf("total = %d, want 1 with registry min volume", res.Total)
	}
}
