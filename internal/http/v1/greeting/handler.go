package greeting

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	applog "github.com/janisto/hello-api/internal/platform/logging"
)

// Options tunes the greeting operation.
type Options struct {
	// Delay holds each response back for the given duration, for load testing. Zero
	// responds immediately.
	Delay time.Duration
}

// Register wires POST / into the provided API. The request is not read: any body, content
// type or query string yields the same response.
func Register(api huma.API, opts Options) {
	huma.Register(api, huma.Operation{
		OperationID:   "post-root",
		Method:        http.MethodPost,
		Path:          "/",
		Summary:       "Return a static greeting",
		Description:   "Ignores the request and always responds with the same greeting.",
		Tags:          []string{"Greeting"},
		DefaultStatus: http.StatusOK,
	}, newHandler(opts))
}

func newHandler(opts Options) func(context.Context, *struct{}) (*Output, error) {
	return func(ctx context.Context, _ *struct{}) (*Output, error) {
		if opts.Delay > 0 {
			if err := wait(ctx, opts.Delay); err != nil {
				applog.LogWarn(ctx, "greeting abandoned", zap.Duration("delay", opts.Delay), zap.Error(err))
				return nil, err
			}
		}
		applog.LogInfo(ctx, "greeting", zap.String("path", "/"))
		return &Output{Body: Data{Message: Message}}, nil
	}
}

// wait blocks for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
