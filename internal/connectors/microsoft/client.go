package microsoft

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/custodia-labs/graphcal/internal/core/ports/driven"
	"github.com/custodia-labs/graphcal/internal/logger"
)

// DefaultBaseURL is the Microsoft Graph v1.0 endpoint.
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

// DefaultTimeout matches the Graph client's default request timeout.
const DefaultTimeout = 60 * time.Second

// maxErrorBody bounds how much of a failed response is read.
const maxErrorBody = 1 << 20

// ClientConfig configures a Graph client.
type ClientConfig struct {
	// BaseURL is the Graph root, e.g. https://graph.microsoft.com/v1.0.
	BaseURL string
	// Timeout bounds each HTTP request.
	Timeout time.Duration
	// Service selects the default rate limits.
	Service ServiceType
	// RateLimit overrides the service defaults where positive.
	RateLimit RateLimitConfig
	// HTTPClient overrides the underlying client. Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client sends authenticated requests to Microsoft Graph.
// It is safe for concurrent use.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

// NewClient creates a Graph client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:     baseURL,
		httpClient:  httpClient,
		rateLimiter: NewRateLimiter(cfg.Service, cfg.RateLimit),
	}
}

// BaseURL returns the Graph root the client resolves relative paths against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request describes a single Graph call.
type Request struct {
	Method string
	// URL is a path relative to the base URL, or an absolute URL such as an
	// @odata.nextLink which is used verbatim.
	URL   string
	Query url.Values
	// Body is encoded as JSON when non-nil.
	Body any
	// TimeZone, when set, asks Graph to express date-times in this zone.
	TimeZone string
}

// Response is a successful Graph response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Do sends req with a bearer token from tp.
// Non-2xx responses are returned as *domain.ServiceError. Requests are not retried.
func (c *Client) Do(ctx context.Context, tp driven.TokenProvider, req *Request) (*Response, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	token, err := tp.GetToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("get access token: %w", err)
	}

	reqURL := c.resolve(req.URL, req.Query)

	var body io.Reader = http.NoBody
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.TimeZone != "" {
		httpReq.Header.Set("Prefer", fmt.Sprintf("outlook.timezone=%q", req.TimeZone))
	}

	logger.Debug("graph: %s %s", method, reqURL)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("graph request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody)) //nolint:errcheck // best effort
		if IsRateLimited(resp.StatusCode) {
			retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After")) //nolint:errcheck // defaults on parse failure
			c.rateLimiter.RecordRateLimitError(retryAfter)
			logger.Warn("graph: %s requests throttled until %s",
				c.rateLimiter.Service(), c.rateLimiter.RetryAt().Format(time.RFC3339))
		}
		svcErr := ParseError(resp.StatusCode, errBody)
		logger.Debug("graph: %s %s failed: status=%d code=%s", method, reqURL, resp.StatusCode, svcErr.Code)
		return nil, svcErr
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}

func (c *Client) resolve(target string, query url.Values) string {
	if strings.HasPrefix(target, "https://") || strings.HasPrefix(target, "http://") {
		return target
	}
	if !strings.HasPrefix(target, "/") {
		target = "/" + target
	}
	u := c.baseURL + target
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}
