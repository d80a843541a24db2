package worker

import (
	"math/rand"
	"time"
)

const backoffBase = time.Second

// jitterFunc returns a random factor in [0, 1) (injectable for tests)
var jitterFunc = rand.Float64

// Backoff returns the delay before retry attempt (0-based): exponential
// in the attempt number with up to 50% random jitter added.
func Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 10 {
		attempt = 10
	}
	base := backoffBase * time.Duration(1<<uint(attempt))
	jitter := time.Duration(jitterFunc() * 0.5 * float64(base))
	return base + jitter
}
