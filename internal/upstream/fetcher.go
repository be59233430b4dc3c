package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/dashcache/dashcache/internal/cache"
	"github.com/dashcache/dashcache/internal/metrics"
)

const (
	maxBodyBytes     = 32 << 20
	maxErrorBodySize = 512
	maxRetryAfter    = 30 * time.Second
	// maxBackoff 是单次重试等待的上限，Retry-After 也不会超过它。
	maxBackoff = 30 * time.Second
	// MaxRetriesLimit 是允许配置的最大重试次数。
	MaxRetriesLimit = 10
)

// Endpoint 描述数据集的回源目标。
type Endpoint struct {
	Dataset  string
	Upstream string
	Path     string
	Token    string
}

// Options 配置 Fetcher，零值字段使用默认值。
type Options struct {
	Client         *http.Client
	MaxRetries     int
	InitialBackoff time.Duration
	// RPS <= 0 表示不限速。
	RPS       float64
	Burst     int
	Metrics   *metrics.Upstream
	Logger    logrus.FieldLogger
	UserAgent string
}

// Fetcher 为缓存生成回源函数，所有数据集共享同一个限速器与连接池。
type Fetcher struct {
	client     *http.Client
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
	metrics    *metrics.Upstream
	logger     logrus.FieldLogger
	userAgent  string
}

func NewFetcher(opts Options) *Fetcher {
	client := opts.Client
	if client == nil {
		client = NewClient(0)
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RPS > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}
	backoff := opts.InitialBackoff
	if backoff <= 0 {
		backoff = time.Second
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.NewUpstream(nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "dashcache"
	}
	return &Fetcher{
		client:     client,
		limiter:    limiter,
		maxRetries: min(max(opts.MaxRetries, 0), MaxRetriesLimit),
		backoff:    backoff,
		metrics:    m,
		logger:     logger,
		userAgent:  userAgent,
	}
}

// For 返回可交给缓存的回源函数。
func (f *Fetcher) For(ep Endpoint, subPath, rawQuery string) cache.Fetcher[json.RawMessage] {
	target := BuildURL(ep, subPath, rawQuery)
	return func(ctx context.Context) (json.RawMessage, error) {
		return f.fetch(ctx, ep, target)
	}
}

// BuildURL 拼接 Upstream + Path + subPath，并附加查询串。
func BuildURL(ep Endpoint, subPath, rawQuery string) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(ep.Upstream, "/"))
	if p := strings.Trim(ep.Path, "/"); p != "" {
		b.WriteString("/")
		b.WriteString(p)
	}
	if sp := strings.TrimLeft(subPath, "/"); sp != "" {
		b.WriteString("/")
		b.WriteString(sp)
	}
	if rawQuery != "" {
		b.WriteString("?")
		b.WriteString(rawQuery)
	}
	return b.String()
}

func (f *Fetcher) fetch(ctx context.Context, ep Endpoint, target string) (json.RawMessage, error) {
	var lastErr error
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			f.metrics.Retries.WithLabelValues(ep.Dataset).Inc()
			wait := f.backoffFor(attempt, lastErr)
			f.logger.WithFields(logrus.Fields{
				"action":  "upstream_retry",
				"dataset": ep.Dataset,
				"url":     target,
				"attempt": attempt,
				"wait":    wait.String(),
			}).WithError(lastErr).Debug("upstream_retry")
			if err := sleep(ctx, wait); err != nil {
				return nil, err
			}
		}

		body, err := f.do(ctx, ep, target)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable(ctx, err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (f *Fetcher) do(ctx context.Context, ep Endpoint, target string) (json.RawMessage, error) {
	if !f.limiter.Allow() {
		f.metrics.RateLimitWaits.WithLabelValues(ep.Dataset).Inc()
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", f.userAgent)
	if ep.Token != "" {
		req.Header.Set("Authorization", "Bearer "+ep.Token)
	}

	started := time.Now()
	resp, err := f.client.Do(req)
	f.metrics.Duration.WithLabelValues(ep.Dataset).Observe(time.Since(started).Seconds())
	if err != nil {
		f.metrics.Requests.WithLabelValues(ep.Dataset, "error").Inc()
		return nil, fmt.Errorf("upstream request %s: %w", target, err)
	}
	defer resp.Body.Close()
	f.metrics.Requests.WithLabelValues(ep.Dataset, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, &StatusError{
			Status:     resp.StatusCode,
			URL:        target,
			Body:       string(snippet),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upstream body: %w", err)
	}
	if len(data) > maxBodyBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrInvalidBody, maxBodyBytes)
	}
	if !json.Valid(data) {
		return nil, ErrInvalidBody
	}
	return json.RawMessage(data), nil
}

func (f *Fetcher) backoffFor(attempt int, lastErr error) time.Duration {
	wait := maxBackoff
	if shift := attempt - 1; shift >= 0 && shift < 63 {
		if d := f.backoff << shift; d > 0 && d>>shift == f.backoff {
			wait = min(d, maxBackoff)
		}
	}
	if statusErr, ok := AsStatusError(lastErr); ok && statusErr.RetryAfter > wait {
		wait = statusErr.RetryAfter
	}
	return wait
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, ErrInvalidBody) {
		return false
	}
	if statusErr, ok := AsStatusError(err); ok {
		return statusErr.Retryable()
	}
	return true
}

func parseRetryAfter(raw string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || seconds <= 0 {
		return 0
	}
	return min(time.Duration(seconds)*time.Second, maxRetryAfter)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
