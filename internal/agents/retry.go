package agents

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// maxAttempts bounds how many times one agent call runs, retries included.
const maxAttempts = 4

// baseBackoff seeds the exponential wait between attempts. Variable so
// tests can shrink it.
var baseBackoff = time.Second

// rateLimitError signals a 429 or the SDK equivalent. When the service
// named its own retry-after delay, it overrides the exponential schedule.
type rateLimitError struct {
	retryAfter time.Duration
}

func (e *rateLimitError) Error() string {
	if e.retryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", e.retryAfter)
	}
	return "rate limited"
}

// authError marks a credential rejection; no retry can fix it.
type authError struct {
	kind    string
	message string
}

func (e *authError) Error() string {
	return fmt.Sprintf("%s authentication failed: %s", e.kind, e.message)
}

// IsAuthError reports whether err is a credential rejection from any agent.
func IsAuthError(err error) bool {
	var ae *authError
	return errors.As(err, &ae)
}

// callWithRetry runs fn for the named agent kind, retrying only rate-limit
// errors. Everything else, auth rejections included, returns immediately.
func callWithRetry(ctx context.Context, kind string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		var rle *rateLimitError
		if !errors.As(lastErr, &rle) {
			return lastErr
		}
		if attempt == maxAttempts-1 {
			break
		}

		wait := baseBackoff << uint(attempt)
		if rle.retryAfter > 0 {
			wait = rle.retryAfter
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("%s: giving up after %d attempts: %w", kind, maxAttempts, lastErr)
}

// retryAfterHint parses a Retry-After header into a delay. Zero when the
// header is absent or not a positive whole-second count.
func retryAfterHint(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
