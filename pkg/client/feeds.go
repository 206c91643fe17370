package client

import (
	"context"

	"github.com/synapse-news/synapse-client/pkg/feed"
)

// FeedFunc adapts the main news feed to a feed.FetchFunc.
func (c *Client) FeedFunc() feed.FetchFunc[News] {
	return func(ctx context.Context, page, pageSize int) (feed.Page[News], error) {
		return c.UserNews(ctx, page, pageSize)
	}
}

// ForYouFeedFunc adapts the "For You" feed to a feed.FetchFunc.
func (c *Client) ForYouFeedFunc() feed.FetchFunc[News] {
	return func(ctx context.Context, page, pageSize int) (feed.Page[News], error) {
		return c.ForYouNews(ctx, page, pageSize)
	}
}

// TopicFeedFunc adapts a topic feed to a feed.FetchFunc.
func (c *Client) TopicFeedFunc(topicID int64) feed.FetchFunc[News] {
	return func(ctx context.Context, page, pageSize int) (feed.Page[News], error) {
		return c.NewsByTopic(ctx, topicID, page, pageSize)
	}
}

// HistoryFeedFunc adapts the reading history to a feed.FetchFunc.
func (c *Client) HistoryFeedFunc() feed.FetchFunc[News] {
	return func(ctx context.Context, page, pageSize int) (feed.Page[News], error) {
		return c.History(ctx, page, pageSize)
	}
}
