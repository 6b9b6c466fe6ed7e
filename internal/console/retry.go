package console

import (
	"context"
	"errors"
	"log/slog"

	"github.com/FACorreiaa/travel-assistant/internal/types"
)

const retryPrompt = "Retry? (yes/no) "

// WithRetry runs fn and, when it fails, reports the failure and offers to run
// it again. Declining yields types.ErrAborted. Closed input and context
// cancellation are returned as is.
func WithRetry[T any](ctx context.Context, p *Prompter, logger *slog.Logger, fn func(context.Context) (T, error)) (T, error) {
	for {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		var zero T
		if errors.Is(err, types.ErrInputClosed) || ctx.Err() != nil {
			return zero, err
		}
		logger.ErrorContext(ctx, "Remote call failed", slog.Any("error", err))
		p.Printf("Something went wrong: %v\n", err)

		again, cerr := p.Confirm(retryPrompt)
		if cerr != nil {
			return zero, cerr
		}
		if !again {
			return zero, types.ErrAborted
		}
	}
}
