package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/OrderlyNetwork/aden/internal/consts"
	"github.com/OrderlyNetwork/aden/pkg/logger"
	"github.com/OrderlyNetwork/aden/pkg/orderly/types"
)

// ErrStale 拉取过程中缓存键被失效，本次结果已丢弃
// 调用方重新发起请求即可拿到新数据
var ErrStale = errors.New("leaderboard: window invalidated during fill")

// RankingSource 排行榜分页数据源
type RankingSource interface {
	CampaignRanking(ctx context.Context, campaignId int64, sortBy string, page, size int, minVolume float64) (*types.RankingResponse, error)
}

// UserStatsSource 单用户活动统计数据源
type UserStatsSource interface {
	CampaignUser(ctx context.Context, campaignId int64, accountId, address, sortBy string, minVolume float64) (*types.UserStatsResponse, error)
}

type Config struct {
	PageSize     int           // 展示页大小
	WindowSize   int           // 远程单次拉取条数，上限500
	RoiMinVolume float64       // ROI榜的最小成交量门槛
	FetchSpacing time.Duration // 连续远程分页之间的间隔
}

// Identity 查询自己成绩时的身份，两个字段至少填一个
type Identity struct {
	AccountId string
	Address   string
}

// DisplayPage 一个展示页的完整数据，Rows内的名次已按可见榜单重算
type DisplayPage struct {
	Rows       []Row            `json:"rows"`
	User       *types.UserStats `json:"user,omitempty"`
	UserRoi    float64          `json:"user_roi"`
	UserRank   int              `json:"user_rank"` // 0表示未上榜
	Page       int              `json:"page"`
	TotalPages int              `json:"total_pages"`
	Total      int              `json:"total"`
}

// Row 排行榜行加上本地计算的名次
type Row struct {
	Rank int `json:"rank"`
	types.RankingRow
}

type inflightFill struct {
	done chan struct{}
	err  error
}

// Aggregator 排行榜窗口缓存
// 按键维护已拉取的榜单前缀，懒加载补页，同键并发请求合并为一次拉取
type Aggregator struct {
	ranking  RankingSource
	userSrc  UserStatsSource
	cfg      Config
	excluded map[string]struct{}

	mu       sync.Mutex
	windows  map[Key]*window
	gen      map[Key]uint64
	inflight map[Key]*inflightFill

	// 测试时可替换，避免真实sleep
	sleep func(ctx context.Context, d time.Duration) error
}

func New(ranking RankingSource, userSrc UserStatsSource, cfg Config, excludedAddresses []string) *Aggregator {
	if cfg.PageSize <= 0 || cfg.WindowSize <= 0 {
		panic(fmt.Sprintf("leaderboard: invalid config, pageSize=%d windowSize=%d", cfg.PageSize, cfg.WindowSize))
	}
	excluded := make(map[string]struct{}, len(excludedAddresses))
	for _, addr := range excludedAddresses {
		excluded[strings.ToLower(addr)] = struct{}{}
	}
	return &Aggregator{
		ranking:  ranking,
		userSrc:  userSrc,
		cfg:      cfg,
		excluded: excluded,
		windows:  make(map[Key]*window),
		gen:      make(map[Key]uint64),
		inflight: make(map[Key]*inflightFill),
		sleep:    sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// threshold 截断门槛：volume榜零成交即截断，ROI榜用最小成交量
// 键上带了显式过滤条件时优先用键上的值
func (a *Aggregator) threshold(key Key) float64 {
	if key.Metric == consts.MetricRoi {
		if key.MinVolume > 0 {
			return key.MinVolume
		}
		return a.cfg.RoiMinVolume
	}
	return 0
}

// GetPage 返回一个展示页
// page从1开始，越界返回空行但分页信息正确；ident为nil时不带个人成绩
func (a *Aggregator) GetPage(ctx context.Context, key Key, page int, ident *Identity) (*DisplayPage, error) {
	if page < 1 {
		panic(fmt.Sprintf("leaderboard: page must be >= 1, got %d", page))
	}
	if key.Metric != consts.MetricVolume && key.Metric != consts.MetricRoi {
		panic(fmt.Sprintf("leaderboard: unknown metric %q", key.Metric))
	}

	need := page * a.cfg.PageSize
	if err := a.ensure(ctx, key, need); err != nil {
		return nil, err
	}

	a.mu.Lock()
	w := a.windows[key]
	if w == nil {
		// ensure成功后窗口一定存在，除非刚被失效
		a.mu.Unlock()
		return nil, ErrStale
	}
	eligible := w.eligible
	total := w.eligibleTotal()
	a.mu.Unlock()

	totalPages := (total + a.cfg.PageSize - 1) / a.cfg.PageSize
	if totalPages < 1 {
		totalPages = 1
	}

	dp := &DisplayPage{
		Rows:       []Row{},
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
	}
	start := (page - 1) * a.cfg.PageSize
	if start < len(eligible) {
		end := start + a.cfg.PageSize
		if end > len(eligible) {
			end = len(eligible)
		}
		dp.Rows = make([]Row, 0, end-start)
		for i := start; i < end; i++ {
			dp.Rows = append(dp.Rows, Row{Rank: i + 1, RankingRow: eligible[i]})
		}
	}

	if ident != nil && (ident.AccountId != "" || ident.Address != "") {
		a.attachUser(ctx, key, ident, dp)
	}
	return dp, nil
}

// attachUser 补充当前用户的个人成绩，失败只记日志不影响榜单
func (a *Aggregator) attachUser(ctx context.Context, key Key, ident *Identity, dp *DisplayPage) {
	resp, err := a.userSrc.CampaignUser(ctx, key.CampaignId, ident.AccountId, ident.Address, key.Metric, a.remoteMinVolume(key))
	if err != nil {
		logger.Warnf("campaign user stats fetch failed, campaign=%d address=%s: %v", key.CampaignId, ident.Address, err)
		return
	}
	if !resp.Success {
		logger.Warnf("campaign user stats returned success=false, campaign=%d address=%s", key.CampaignId, ident.Address)
		return
	}
	us := resp.Data
	dp.User = &us
	dp.UserRoi = UserRoi(&us)

	a.mu.Lock()
	w := a.windows[key]
	a.mu.Unlock()
	if w != nil {
		dp.UserRank = w.rankOf(ident.Address)
	}
}

// UserRoi 个人收益率 = pnl / (期初净值 + 累计入金)
// 分母、pnl或成交量任一为0都返回0，避免除零和无意义的收益率
func UserRoi(us *types.UserStats) float64 {
	base := us.StartAccountValue + us.TotalDepositAmount
	if base == 0 || us.Pnl == 0 || us.Volume == 0 {
		return 0
	}
	return us.Pnl / base
}

// ensure 保证窗口覆盖到need行可见数据
// volume榜按需补页，ROI榜必须拉到截断点才能排序，直接拉完
func (a *Aggregator) ensure(ctx context.Context, key Key, need int) error {
	for {
		a.mu.Lock()
		w := a.windows[key]
		if w != nil && a.satisfied(key, w, need) {
			a.mu.Unlock()
			return nil
		}
		if f := a.inflight[key]; f != nil {
			a.mu.Unlock()
			select {
			case <-f.done:
			case <-ctx.Done():
				return ctx.Err()
			}
			// 被失效的旧拉取不算本次请求的失败，重新走一轮
			if f.err != nil && !errors.Is(f.err, ErrStale) {
				return f.err
			}
			continue
		}
		f := &inflightFill{done: make(chan struct{})}
		a.inflight[key] = f
		gen := a.gen[key]
		// 显式落表，保证失效操作能覆盖到首次拉取中的键
		a.gen[key] = gen
		a.mu.Unlock()

		f.err = a.fill(ctx, key, gen, need)
		close(f.done)

		a.mu.Lock()
		if a.inflight[key] == f {
			delete(a.inflight, key)
		}
		a.mu.Unlock()
		if f.err != nil {
			return f.err
		}
	}
}

func (a *Aggregator) satisfied(key Key, w *window, need int) bool {
	if w.complete {
		return true
	}
	if key.Metric == consts.MetricRoi {
		// ROI榜未拉完不能对外服务
		return false
	}
	return len(w.eligible) >= need
}

// fill 从当前窗口末尾继续拉远程分页，直到满足need或截断
// 提交前校验generation，键已失效就丢弃整段结果
func (a *Aggregator) fill(ctx context.Context, key Key, gen uint64, need int) error {
	a.mu.Lock()
	var local window
	if w := a.windows[key]; w != nil {
		local = w.clone()
	}
	// 排除表可能被管理端追加，拉取期间用快照
	excluded := make(map[string]struct{}, len(a.excluded))
	for addr := range a.excluded {
		excluded[addr] = struct{}{}
	}
	a.mu.Unlock()

	threshold := a.threshold(key)
	fetched := 0
	for !local.complete && !a.satisfied(key, &local, need) {
		if fetched > 0 {
			if err := a.sleep(ctx, a.cfg.FetchSpacing); err != nil {
				return err
			}
		}

		// 远程始终按volume降序拉取，截断逻辑依赖这个顺序
		// ROI榜的展示顺序由本地finalize负责
		resp, err := a.ranking.CampaignRanking(ctx, key.CampaignId, consts.MetricVolume, local.pages+1, a.cfg.WindowSize, a.remoteMinVolume(key))
		if err != nil {
			return fmt.Errorf("fetch ranking page %d: %w", local.pages+1, err)
		}
		if !resp.Success {
			return fmt.Errorf("ranking source returned success=false for campaign %d", key.CampaignId)
		}
		fetched++
		local.pages++
		if local.pages == 1 {
			local.total = resp.Data.Meta.Total
		}
		// 数据源可能把单页限到比窗口小，页满与否以实际页大小为准
		full := a.cfg.WindowSize
		if rp := resp.Data.Meta.RecordsPerPage; rp > 0 && rp < full {
			full = rp
		}
		pageFull := len(resp.Data.Rows) >= full
		local.appendRows(resp.Data.Rows, threshold, pageFull, excluded)
		if !local.complete && int64(len(local.raw)) >= local.total {
			local.complete = true
		}
	}
	local.finalize(key.Metric)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.gen[key] != gen {
		return ErrStale
	}
	a.windows[key] = &local
	return nil
}

// remoteMinVolume 带给远程的成交量过滤
// ROI榜始终下发门槛，volume榜只有键上带了显式条件才下发
func (a *Aggregator) remoteMinVolume(key Key) float64 {
	if key.MinVolume > 0 {
		return key.MinVolume
	}
	if key.Metric == consts.MetricRoi {
		return a.cfg.RoiMinVolume
	}
	return 0
}

// AddExcluded 追加不参与排行的地址
// 只影响之后构建的窗口，调用方需要自行失效相关活动的缓存
func (a *Aggregator) AddExcluded(addresses []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, addr := range addresses {
		a.excluded[strings.ToLower(addr)] = struct{}{}
	}
}

// Invalidate 丢弃一个键的缓存窗口，进行中的拉取结果不会再被合入
func (a *Aggregator) Invalidate(key Key) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gen[key]++
	delete(a.windows, key)
}

// InvalidateCampaign 丢弃一个活动下所有指标和过滤条件的窗口
func (a *Aggregator) InvalidateCampaign(campaignId int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	// gen表覆盖所有拉取过或正在拉取的键
	for key := range a.gen {
		if key.CampaignId == campaignId {
			a.gen[key]++
			delete(a.windows, key)
		}
	}
}
