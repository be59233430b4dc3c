package upstream

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidBody 表示上游返回的内容不是合法 JSON。
var ErrInvalidBody = errors.New("upstream returned a non-JSON body")

// StatusError 表示上游返回了非 2xx 状态，HTTP 层会原样透传 Status。
type StatusError struct {
	Status int
	URL    string
	Body   string
	// RetryAfter 来自 429/503 响应的 Retry-After 头，用于延长下一次重试的等待。
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s responded %d", e.URL, e.Status)
}

// Retryable 报告该状态是否值得重试（5xx 与 429）。
func (e *StatusError) Retryable() bool {
	return e.Status >= 500 || e.Status == 429
}

// AsStatusError 从错误链中提取 *StatusError。
func AsStatusError(err error) (*StatusError, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr, true
	}
	return nil, false
}
