package pricing

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"kitrader/pkg/ratelimit"
	"kitrader/pkg/retry"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client - HTTP клиент API цен (Birdeye-совместимый)
//
// GET {base}/defi/price?address={token} → {"success":true,"data":{"value":...}}
//
// Запросы проходят через token-bucket rate limiter и ограниченный
// retry с экспоненциальным backoff. Ошибки 4xx не повторяются.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *ratelimit.RateLimiter
	retryCfg   retry.Config
}

// ClientOption настраивает клиента
type ClientOption func(*Client)

// WithHTTPClient подменяет HTTP клиент (для тестов)
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithAPIKey задает ключ API (заголовок X-API-KEY)
func WithAPIKey(key string) ClientOption {
	return func(c *Client) { c.apiKey = key }
}

// NewClient создает клиента API цен.
//
// rate/burst - лимиты token bucket (запросов в секунду / всплеск),
// maxRetries - количество попыток на один GetPrice.
func NewClient(baseURL string, rate, burst float64, maxRetries int, opts ...ClientOption) *Client {
	retryCfg := retry.DefaultConfig()
	retryCfg.MaxRetries = maxRetries
	retryCfg.RetryIf = retryablePriceError

	c := &Client{
		baseURL:    baseURL,
		httpClient: NewHTTPClient(DefaultHTTPClientConfig()),
		limiter:    ratelimit.NewRateLimiter(rate, burst),
		retryCfg:   retryCfg,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Endpoint возвращает базовый URL клиента
func (c *Client) Endpoint() string {
	return c.baseURL
}

// priceResponse - тело ответа API цен
type priceResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Value          float64 `json:"value"`
		UpdateUnixTime int64   `json:"updateUnixTime"`
	} `json:"data"`
	Message string `json:"message"`
}

// GetPrice возвращает текущую цену токена в SOL
func (c *Client) GetPrice(ctx context.Context, token string) (decimal.Decimal, error) {
	return retry.DoWithResult(ctx, func() (decimal.Decimal, error) {
		return c.fetchPrice(ctx, token)
	}, c.retryCfg)
}

func (c *Client) fetchPrice(ctx context.Context, token string) (decimal.Decimal, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return decimal.Zero, err
	}

	reqURL := fmt.Sprintf("%s/defi/price?address=%s", c.baseURL, url.QueryEscape(token))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return decimal.Zero, err
	}

	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-KEY", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, err
	}

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, &APIError{
			Endpoint: c.baseURL,
			Code:     resp.StatusCode,
			Message:  http.StatusText(resp.StatusCode),
		}
	}

	var parsed priceResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return decimal.Zero, fmt.Errorf("decode price response: %w", err)
	}

	if !parsed.Success {
		return decimal.Zero, &APIError{
			Endpoint: c.baseURL,
			Code:     resp.StatusCode,
			Message:  parsed.Message,
		}
	}

	price := decimal.NewFromFloat(parsed.Data.Value)
	if !price.IsPositive() {
		return decimal.Zero, retry.Permanent(fmt.Errorf("%w: non-positive price for %s", ErrUnavailable, token))
	}

	return price, nil
}

// retryablePriceError повторяет сетевые ошибки и 5xx/429,
// но не отмену контекста и не клиентские 4xx
func retryablePriceError(err error) bool {
	if !retry.RetryIfNotContext(err) {
		return false
	}
	return retry.IsRetryable(err)
}
