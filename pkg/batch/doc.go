// Package batch resolves many FRED requests concurrently.
//
// FRED allows 120 requests per minute per API key. The fetcher bounds the
// number of in-flight resolutions rather than the request rate, so callers
// hitting the network hard should keep MaxConcurrency small.
//
// Example usage:
//
//	fetcher := batch.NewFetcher(fredClient, batch.DefaultConfig())
//	results := fetcher.FetchAll(ctx, []string{
//		"series/observations?series_id=GNPCA",
//		"series/observations?series_id=UNRATE",
//	}, client.FredOnCacheMiss)
//
//	pages, err := fetcher.FetchAllPages(ctx, "UNRATE", series.ObservationOptions{}, client.FredOnCacheMiss)
//
// The fetcher:
//   - Resolves each distinct fragment once, with at most MaxConcurrency in flight
//   - Never lets one failure cancel its siblings
//   - Stops scheduling new work once the context is done
//   - For paged observations, reads the total count from page 1 and fetches
//     the remaining limit/offset pages in parallel (partial data on error)
package batch
