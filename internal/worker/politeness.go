package worker

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// delayerSeq decorrelates the jitter streams of Delayers built within the
// same clock tick, which happens whenever a batch of workers starts at once.
var delayerSeq atomic.Int64

// Delayer spaces requests out to stay polite to the portal. The base delay
// is enforced by a rate limiter; a random jitter on top keeps the request
// cadence from looking mechanical.
type Delayer struct {
	limiter *rate.Limiter
	jitter  time.Duration
	rng     *rand.Rand
}

// NewDelayer builds a Delayer with the given base delay and jitter bound.
// A zero base disables the limiter; a zero jitter disables the jitter.
func NewDelayer(base, jitter time.Duration) *Delayer {
	var limiter *rate.Limiter
	if base > 0 {
		limiter = rate.NewLimiter(rate.Every(base), 1)
	}
	return &Delayer{
		limiter: limiter,
		jitter:  jitter,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano() ^ delayerSeq.Add(1)<<32)),
	}
}

// Wait blocks for the base delay plus a jitter drawn from [0, jitter).
// Returns early with the context's error on cancellation.
func (d *Delayer) Wait(ctx context.Context) error {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	if d.jitter <= 0 {
		return nil
	}

	timer := time.NewTimer(time.Duration(d.rng.Int63n(int64(d.jitter))))
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
