// Package pagination collects every page of a paginated Synapse feed.
//
// When the first page reports the total page count, the remaining pages are
// fetched in parallel with bounded concurrency. Without that metadata the
// pages are walked one by one until the feed reports exhaustion, using the
// same rules as the feed controller.
//
// Example usage:
//
//	fetcher := pagination.NewBatchFetcher[client.News](pagination.DefaultConfig())
//	items, err := fetcher.FetchAll(ctx, apiClient.HistoryFeedFunc())
//
// Items are returned in page order. On failure the pages collected before
// the first failed page are returned together with the error.
package pagination
