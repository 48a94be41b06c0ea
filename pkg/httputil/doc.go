// Package httputil provides retry helpers for HTTP clients.
//
// # Retry
//
// [Retry] re-runs an operation with exponential backoff, but only for
// errors the caller marked transient with [Retryable]:
//
//	err := httputil.Retry(ctx, 3, 500*time.Millisecond, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return httputil.Retryable(err)
//	    }
//	    defer resp.Body.Close()
//	    if httputil.RetryableStatus(resp.StatusCode) {
//	        return httputil.Retryable(fmt.Errorf("status %d", resp.StatusCode))
//	    }
//	    return nil
//	})
//
// Everything else (rejected input, 4xx responses) fails on the first
// attempt. A single attempt never sleeps, so callers that disable retries
// pay nothing for going through Retry.
package httputil
