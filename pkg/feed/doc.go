// Package feed implements the incremental list-loading controller used by
// every paginated Synapse view (feed, topic feed, reading history).
//
// A Controller accumulates items page by page from a caller-supplied
// FetchFunc. It guarantees at most one fetch in flight, decides exhaustion
// from server metadata when present and from the page size otherwise, and
// discards responses that arrive after a Reset.
//
// Example usage:
//
//	ctrl := feed.New(api.ForYouFeedFunc(), feed.DefaultConfig())
//	ctrl.Activate(ctx)   // first page
//	ctrl.LoadMore(ctx)   // next page, no-op while loading or exhausted
//	ctrl.SetDependencies(ctx, topicID) // topic switch: reset + first page
//
// Exhaustion policy, in priority order:
//   - empty page: no more pages, cursor not advanced
//   - pagination metadata present: more pages while page < pages
//   - fewer items than the page size: no more pages
//   - otherwise: assume more pages
//
// Visibility-driven loading is wired through an Observer, see Trigger.
package feed
