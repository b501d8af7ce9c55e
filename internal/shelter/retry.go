package shelter

import (
	"context"
	"fmt"

	"github.com/vietddude/catshelter/internal/core/domain"
	"github.com/vietddude/catshelter/internal/shelter/metrics"
)

// maxAttempts bounds each external call: one transient failure is retried
// immediately, a second one is terminal.
const maxAttempts = 2

// callWithRetry executes fn, applying the retry policy to one external call
// site. A transient failure on the last attempt surfaces as ErrInternal with
// the cause masked from the error chain; any non-transient error propagates
// unchanged on first occurrence.
func callWithRetry[T any](
	ctx context.Context,
	dep, op string,
	fn func() (T, error),
) (T, error) {
	var zero T
	for attempt := 1; ; attempt++ {
		out, err := fn()
		if err == nil {
			return out, nil
		}
		if !domain.IsTransient(err) {
			return zero, err
		}
		if attempt == maxAttempts {
			metrics.ExternalFailures.WithLabelValues(dep, op).Inc()
			return zero, fmt.Errorf("%s %s: %w: %v", dep, op, domain.ErrInternal, err)
		}
		if cerr := ctx.Err(); cerr != nil {
			return zero, cerr
		}
		metrics.ExternalRetries.WithLabelValues(dep, op).Inc()
	}
}
