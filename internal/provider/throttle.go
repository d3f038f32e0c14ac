package provider

import "golang.org/x/time/rate"

// newThrottle returns nil when ratePerSecond is 0 (unbounded), matching
// spec.md §6's "0 = unbounded" for *.provider.rate_limit.
func newThrottle(ratePerSecond float64) *rate.Limiter {
	if ratePerSecond <= 0 {
		return nil
	}

	burst := int(ratePerSecond)
	if burst < 1 {
		burst = 1
	}

	return rate.NewLimiter(rate.Limit(ratePerSecond), burst)
}
