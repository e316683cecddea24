package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/OrderlyNetwork/aden/pkg/orderly/types"
)

const (
	rankingPath   = "/v1/public/campaign/ranking"
	userStatsPath = "/v1/public/campaign/user"

	// 排行榜接口单次最多返回500条
	MaxRecordsPerPage = 500
)

type OrderlyRestClient struct {
	url          string
	httpClient   *http.Client
	retryBackoff time.Duration // 429退避基数，测试时调小
}

func NewOrderlyRestClient(rawUrl string) (*OrderlyRestClient, error) {
	parsedUrl, err := url.Parse(rawUrl)
	if err != nil || parsedUrl.Scheme == "" || parsedUrl.Host == "" {
		return nil, fmt.Errorf("invalid URL: %s", rawUrl)
	}
	if len(parsedUrl.Path) > 0 && parsedUrl.Path[len(parsedUrl.Path)-1:] == "/" {
		parsedUrl.Path = parsedUrl.Path[:len(parsedUrl.Path)-1]
	}

	return &OrderlyRestClient{
		url:          parsedUrl.String(),
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		retryBackoff: 2 * time.Second,
	}, nil
}

// doRequestWithContext 执行GET请求，429时指数退避重试
func (rest *OrderlyRestClient) doRequestWithContext(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	const maxRetries = 5 // 最大重试次数
	var lastErr error

	reqUrl := rest.url + endpoint + "?" + params.Encode()

	for attempt := 0; attempt < maxRetries; attempt++ {
		// 检查 Context 是否已被取消
		if ctx.Err() != nil {
			return ctx.Err()
		}
		req, err := http.NewRequestWithContext(ctx, "GET", reqUrl, nil)
		if err != nil {
			return fmt.Errorf("failed to create new request: %w", err) // 无法恢复的错误，立即返回
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := rest.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("failed to execute request (network error): %w", err)
			goto Retry // 网络错误，尝试重试
		}

		if resp.StatusCode == http.StatusOK {
			byteData, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("failed to read response body: %w", err)
			}
			if err := json.Unmarshal(byteData, result); err != nil {
				return fmt.Errorf("failed to unmarshal response: %w", err)
			}
			return nil
		}
		resp.Body.Close()

		// 429需要重试，其余非OK状态一般不可恢复
		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("received 429 Too Many Requests on attempt %d", attempt+1)
			goto Retry
		}
		return fmt.Errorf("received non-OK HTTP status: %s", resp.Status)

	Retry:
		if attempt == maxRetries-1 {
			return fmt.Errorf("API failed after %d retries. Last error: %w", maxRetries, lastErr)
		}

		// 指数退避： retryBackoff * 2^attempt
		waitTime := rest.retryBackoff * time.Duration(1<<attempt)
		select {
		case <-time.After(waitTime):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("unexpected exit from retry loop")
}

// CampaignRanking 拉取活动排行榜的一页数据
// page从1开始，size不能超过API上限500，minVolume>0时由服务端过滤
func (rest *OrderlyRestClient) CampaignRanking(ctx context.Context, campaignId int64, sortBy string, page, size int, minVolume float64) (*types.RankingResponse, error) {
	if size > MaxRecordsPerPage {
		size = MaxRecordsPerPage
	}
	params := url.Values{}
	params.Set("campaign_id", strconv.FormatInt(campaignId, 10))
	params.Set("sort_by", sortBy)
	params.Set("page", strconv.Itoa(page))
	params.Set("size", strconv.Itoa(size))
	params.Set("aggregate_by", "address")
	if minVolume > 0 {
		params.Set("min_volume", strconv.FormatFloat(minVolume, 'f', -1, 64))
	}

	var res types.RankingResponse
	if err := rest.doRequestWithContext(ctx, rankingPath, params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// CampaignUser 查询单个用户的活动统计
// 必须传调用方自己的account_id和address，不查别人的数据
func (rest *OrderlyRestClient) CampaignUser(ctx context.Context, campaignId int64, accountId, address, sortBy string, minVolume float64) (*types.UserStatsResponse, error) {
	params := url.Values{}
	params.Set("campaign_id", strconv.FormatInt(campaignId, 10))
	if accountId != "" {
		params.Set("account_id", accountId)
	}
	if address != "" {
		params.Set("address", address)
	}
	params.Set("sort_by", sortBy)
	if minVolume > 0 {
		params.Set("min_volume", strconv.FormatFloat(minVolume, 'f', -1, 64))
	}

	var res types.UserStatsResponse
	if err := rest.doRequestWithContext(ctx, userStatsPath, params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
