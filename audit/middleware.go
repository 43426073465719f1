package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/inkwellhq/inkwell/kit"
)

// Middleware returns a kit.Middleware that records every invocation of the
// wrapped endpoint under the given action name. Identity fields come from
// the request context; the entry is queued asynchronously so auditing never
// blocks the caller.
func Middleware(logger *SQLiteLogger, action string) kit.Middleware {
	return func(next kit.Endpoint) kit.Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			params := ""
			if req != nil {
				if raw, merr := json.Marshal(req); merr == nil {
					params = string(raw)
				}
			}

			entry := &Entry{
				Action:     action,
				Parameters: params,
				UserID:     kit.GetUserID(ctx),
				Transport:  kit.GetTransport(ctx),
				RequestID:  kit.GetRequestID(ctx),
				DurationMs: time.Since(start).Milliseconds(),
			}
			if err != nil {
				entry.Error = err.Error()
			}
			logger.LogAsync(entry)

			return resp, err
		}
	}
}
