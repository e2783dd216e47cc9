package pipeline

import (
	"errors"
	"math/rand"
	"time"

	"github.com/dgallion1/doctext/internal/vision"
)

// IsRetryable checks if an error is worth retrying. Only transient vision
// API failures (429, 5xx) qualify; the extraction pipeline itself never
// retries, so this is the one place a second attempt happens.
func IsRetryable(err error) bool {
	var retryErr *vision.RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int63n(int64(base) / 2))
	return base + jitter
}

const MaxRetries = 3
