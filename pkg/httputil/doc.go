// Package httputil provides HTTP plumbing shared by the catalog transport
// and the artifact loader.
//
// # Overview
//
//   - [NewClient]: an *http.Client with the default timeouts used by uvm
//   - [CheckStatus]: maps HTTP status codes to sentinel errors, marking
//     transient failures as retryable
//   - [Retry]: automatic retry with exponential backoff
//
// # Retry
//
// [Retry] only retries errors wrapped in [RetryableError]. Network errors,
// 5xx and 429 responses are wrapped by [CheckStatus] and [Transient]; a 404
// is final:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return httputil.Transient(err)
//	    }
//	    defer resp.Body.Close()
//	    return httputil.CheckStatus(resp)
//	})
//
// Default settings: 3 attempts, 1 second initial delay doubling each retry.
package httputil
