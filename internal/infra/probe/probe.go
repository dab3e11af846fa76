// Package probe checks whether a media resource is reachable again.
package probe

import (
	"context"
	"errors"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"resty.dev/v3"

	"github.com/edumarques81/superplayer/internal/domain/superplayer"
)

// DefaultTimeout bounds one probe request.
const DefaultTimeout = 10 * time.Second

// Checker probes resources over HTTP.
type Checker struct {
	client *resty.Client
}

// NewChecker returns a checker whose requests time out after timeout.
// A non-positive timeout selects DefaultTimeout.
func NewChecker(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", "SuperPlayer/1.0")
	return &Checker{client: client}
}

// Close releases idle connections.
func (c *Checker) Close() error {
	return c.client.Close()
}

// Check requests url and classifies the outcome. Servers that refuse HEAD
// are asked again with a GET whose body is discarded unread.
func (c *Checker) Check(ctx context.Context, url string) superplayer.CheckResult {
	resp, err := c.client.R().SetContext(ctx).Head(url)
	if err == nil && (resp.StatusCode() == http.StatusMethodNotAllowed || resp.StatusCode() == http.StatusNotImplemented) {
		resp, err = c.client.R().
			SetContext(ctx).
			SetDoNotParseResponse(true).
			Get(url)
		if resp != nil && resp.RawResponse != nil {
			resp.RawResponse.Body.Close()
		}
	}

	if err != nil {
		result := superplayer.CheckResult{Retryable: Retryable(err), Err: err.Error()}
		log.Debug().Err(err).Str("url", url).Bool("retryable", result.Retryable).Msg("Resource check failed")
		return result
	}

	log.Debug().Str("url", url).Int("status", resp.StatusCode()).Msg("Resource checked")
	return superplayer.CheckResult{StatusCode: resp.StatusCode()}
}

// Retryable reports whether err is a transient network failure: connection
// refused or reset, network unreachable, or a timeout.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ENETUNREACH),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, context.DeadlineExceeded):
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
