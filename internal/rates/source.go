package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"expense_bot/internal/logger"
)

// 汇率解析错误
var (
	// ErrRateNotFound 上游应答正常但没有所求货币对的汇率（或汇率为 0）
	ErrRateNotFound = errors.New("rate not found")

	// ErrSourceUnavailable 上游不可用（网络错误、超时、非 200 应答）
	ErrSourceUnavailable = errors.New("rate source unavailable")
)

// Source 汇率来源端口
// 返回指定日期 1 单位 base 折合多少 quote
type Source interface {
	FetchRate(ctx context.Context, date, base, quote string) (float64, error)
}

// HTTPSource exchangerate.host 风格的汇率 API 客户端
// 请求形如 GET {baseURL}/{date}?base=RUB&symbols=KZT
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSource 创建汇率 API 客户端
func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// rateResponse 汇率 API 应答结构
type rateResponse struct {
	Rates map[string]float64 `json:"rates"`
}

// FetchRate 获取指定日期的 base→quote 汇率
func (s *HTTPSource) FetchRate(ctx context.Context, date, base, quote string) (float64, error) {
	base = strings.ToUpper(base)
	quote = strings.ToUpper(quote)

	params := url.Values{
		"base":    {base},
		"symbols": {quote},
	}
	fullURL := fmt.Sprintf("%s/%s?%s", s.baseURL, date, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	logger.L().Debugf("Fetching rate: date=%s, base=%s, quote=%s", date, base, quote)
	resp, err := s.client.Do(req)
	if err != nil {
		logger.L().Errorf("Rate API request failed: %v", err)
		return 0, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.L().Errorf("Rate API HTTP error: status=%d, url=%s", resp.StatusCode, fullURL)
		return 0, fmt.Errorf("%w: status %d", ErrSourceUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("%w: read body: %v", ErrSourceUnavailable, err)
	}

	var apiResp rateResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		logger.L().Errorf("Failed to parse rate API response: %s", string(body))
		return 0, fmt.Errorf("%w: parse json: %v", ErrSourceUnavailable, err)
	}

	rate, ok := apiResp.Rates[quote]
	if !ok || rate == 0 {
		logger.L().Warnf("Rate API returned no rate: date=%s, base=%s, quote=%s", date, base, quote)
		return 0, fmt.Errorf("%w: %s/%s on %s", ErrRateNotFound, base, quote, date)
	}

	logger.L().Debugf("Fetched rate %.6f: date=%s, base=%s, quote=%s", rate, date, base, quote)
	return rate, nil
}
