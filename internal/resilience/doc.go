// Package resilience provides fault isolation for outbound calls to upstream
// news hosts.
//
// Each upstream host gets its own circuit breaker, so a host that keeps timing
// out is skipped quickly for a while instead of eating a worker slot on every
// aggregation. Inside the breaker, a single GET is retried with backoff when it
// fails transiently (5xx, 429, connection resets); anything else fails the
// source for the current aggregate.
//
// Usage Example:
//
//	reg := circuitbreaker.NewRegistry(circuitbreaker.FeedFetchConfig)
//	result, err := reg.ForURL(feedURL).Execute(func() (interface{}, error) {
//	    var body []byte
//	    err := retry.WithBackoff(ctx, retry.FeedFetchConfig(), func() error {
//	        var err error
//	        body, err = get(ctx, feedURL)
//	        return err
//	    })
//	    return body, err
//	})
package resilience
