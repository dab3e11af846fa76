package superplayer

import (
	"context"
	"strings"

	"github.com/edumarques81/superplayer/internal/domain/notification"
)

// retry drives the resource retry loop for live items. The loop starts on an
// error log mentioning a 404 and only when Env.RetryOnResourceError is set;
// CheckResource and ResourceChecked are honored whenever they are sent.
func (r Reducer) retry(s *State, a Action) []Effect {
	switch a := a.(type) {
	case NotificationCenter:
		received, ok := a.Action.(notification.LogReceived)
		if !ok || !r.Env.RetryOnResourceError {
			return nil
		}
		errLog, ok := received.Log.(notification.ErrorLog)
		if !ok || !strings.Contains(errLog.Comment, "404") {
			return nil
		}
		if s.RetryCount != 0 || !s.IsLive || !s.IsLoaded() {
			return nil
		}
		return []Effect{Send(CheckResource{URL: s.CurrentURL})}

	case CheckResource:
		s.RetryCount++
		if s.RetryCount > r.Env.MaximumRetryCount || a.URL == "" || r.Env.CheckResource == nil {
			return []Effect{Send(End{})}
		}
		check, url := r.Env.CheckResource, a.URL
		return []Effect{Run(func(ctx context.Context) Action {
			return ResourceChecked{URL: url, Result: check(ctx, url)}
		})}

	case ResourceChecked:
		if a.URL != s.CurrentURL {
			return nil
		}
		code := a.Result.StatusCode
		switch {
		case code >= 200 && code < 300:
			return []Effect{After(LiveBufferWarmup, CancelCheckResource, Load{URL: a.URL, AutoPlay: true})}
		case code >= 400 && code < 500, a.Result.Retryable:
			return []Effect{After(r.Env.ReloadInterval, CancelCheckResource, CheckResource{URL: a.URL})}
		default:
			return []Effect{Send(End{})}
		}
	}
	return nil
}
