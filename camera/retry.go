package camera

import (
	"time"

	"github.com/cenkalti/backoff"
)

// OpenWithRetry opens p, retrying with an exponential backoff for up to
// maxElapsed.  Freshly plugged cameras take a moment to enumerate and
// the first few opens may fail.  The last error is returned on give-up.
func OpenWithRetry(p Port, maxElapsed time.Duration) error {
	if maxElapsed <= 0 {
		return p.Open()
	}
	return backoff.Retry(p.Open, &backoff.ExponentialBackOff{
		InitialInterval:     25 * time.Millisecond,
		RandomizationFactor: 0.,
		Multiplier:          2.,
		MaxInterval:         1 * time.Second,
		MaxElapsedTime:      maxElapsed,
		Clock:               backoff.SystemClock})
}
