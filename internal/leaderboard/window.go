package leaderboard

import (
	"sort"
	"strings"

	"github.com/OrderlyNetwork/aden/internal/consts"
	"github.com/OrderlyNetwork/aden/pkg/orderly/types"
)

// Key 窗口缓存的键：活动+指标+过滤条件三元组
// 任何一项变化都视为另一份榜单，互相不能复用缓存
type Key struct {
	CampaignId int64
	Metric     string
	MinVolume  float64
}

// window 一个键下已拉取的榜单前缀及其派生数据
// raw保持远程返回顺序（按volume降序），eligible是过滤排序后的可见集合
type window struct {
	raw      []types.RankingRow
	eligible []types.RankingRow
	pages    int   // 已消费的远程页数
	total    int64 // 首次拉取时上游报告的总行数
	complete bool  // 截断命中或数据源已拉完
	sorted   bool  // ROI榜的本地重排是否已做
}

func (w *window) clone() window {
	cp := *w
	cp.raw = append([]types.RankingRow(nil), w.raw...)
	cp.eligible = append([]types.RankingRow(nil), w.eligible...)
	return cp
}

// eligibleTotal 可见集合的总行数
// 窗口未拉完时用上游total估算剩余部分，拉完后为精确值
func (w *window) eligibleTotal() int {
	if w.complete {
		return len(w.eligible)
	}
	remaining := int(w.total) - len(w.raw)
	if remaining < 0 {
		remaining = 0
	}
	return len(w.eligible) + remaining
}

// appendRows 把一页远程数据并入窗口
// 在首个volume<=threshold的行处整体截断，之后的行即使非零也不再计入
func (w *window) appendRows(rows []types.RankingRow, threshold float64, pageFull bool, excluded map[string]struct{}) {
	cut := -1
	for i, r := range rows {
		if r.Volume <= threshold {
			cut = i
			break
		}
	}
	if cut >= 0 {
		rows = rows[:cut]
		w.complete = true
	} else if !pageFull {
		// 返回不满一页说明数据源已经拉完
		w.complete = true
	}

	w.raw = append(w.raw, rows...)
	for _, r := range rows {
		if _, ok := excluded[strings.ToLower(r.Address)]; ok {
			continue
		}
		if r.Volume <= 0 {
			continue
		}
		w.eligible = append(w.eligible, r)
	}
}

// finalize ROI榜在窗口拉完后按roi降序做一次稳定重排
// 截断是按volume序计算的，展示序是roi序，两者不是同一个键
func (w *window) finalize(metric string) {
	if metric != consts.MetricRoi || !w.complete || w.sorted {
		return
	}
	sort.SliceStable(w.eligible, func(i, j int) bool {
		return w.eligible[i].Roi > w.eligible[j].Roi
	})
	w.sorted = true
}

// rankOf 地址在可见集合中的1-based名次，不在榜上返回0
func (w *window) rankOf(address string) int {
	if address == "" {
		return 0
	}
	for i, r := range w.eligible {
		if strings.EqualFold(r.Address, address) {
			return i + 1
		}
	}
	return 0
}
