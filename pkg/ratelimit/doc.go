// Package ratelimit tracks the platform's per-endpoint request windows.
//
// The API reports its quota in the x-rate-limit-remaining and x-rate-limit-reset
// response headers. Window records them per endpoint and Wait blocks until the
// window resets when nothing is left, plus a few seconds of slack:
//
//	w := ratelimit.NewWindow(ratelimit.WithOnWait(func(endpoint string, d time.Duration) {
//	    log.Printf("waiting %s for %s", d, endpoint)
//	}))
//	if err := w.Wait(ctx, "statuses/user_timeline"); err != nil {
//	    return err
//	}
//	resp, err := client.Do(req)
//	w.Observe("statuses/user_timeline", resp.Header)
//
// A throttled response (429) marks the endpoint exhausted with Exhaust; the
// caller then waits and sends the same request again.
package ratelimit
