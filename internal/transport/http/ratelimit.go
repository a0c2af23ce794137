package http

import "time"

// rateLimiter is a token bucket owned by one connection's read loop.
// It is not safe for concurrent use.
type rateLimiter struct {
	rate   float64
	burst  float64
	tokens float64
	last   time.Time
	now    func() time.Time
}

// newRateLimiter allows rate events per second with the given burst.
// A non-positive rate disables limiting.
func newRateLimiter(rate float64, burst int) *rateLimiter {
	if rate <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = int(rate * 2)
		if burst < 1 {
			burst = 1
		}
	}
	r := &rateLimiter{
		rate:   rate,
		burst:  float64(burst),
		tokens: float64(burst),
		now:    time.Now,
	}
	r.last = r.now()
	return r
}

func (r *rateLimiter) allow() bool {
	if r == nil {
		return true
	}
	now := r.now()
	r.tokens += now.Sub(r.last).Seconds() * r.rate
	if r.tokens > r.burst {
		r.tokens = r.burst
	}
	r.last = now
	if r.tokens < 1 {
		return false
	}
	r.tokens--
	return true
}
