package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/synapse-news/synapse-client/pkg/feed"
)

// Default page sizes used by the web frontend.
const (
	DefaultPerPage        = 10
	DefaultHistoryPerPage = 50
)

const savedNewsPath = "/news/saved"

func pageQuery(page, perPage int) url.Values {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	return url.Values{
		"page":     []string{strconv.Itoa(page)},
		"per_page": []string{strconv.Itoa(perPage)},
	}
}

// getNewsPage fetches and normalizes one page of news. A body of unknown
// shape is logged and yields an empty page.
func (c *Client) getNewsPage(ctx context.Context, path string, query url.Values) (feed.Page[News], error) {
	raw, err := c.GetRaw(ctx, path, query)
	if err != nil {
		return feed.Page[News]{}, err
	}

	page, err := DecodePage[News](raw)
	if errors.Is(err, ErrMalformedPage) {
		c.logger.Warn().Err(err).Str("endpoint", path).Msg("Malformed page response treated as empty")
		return feed.Page[News]{}, nil
	}
	return page, err
}

// UserNews returns a page of the main news feed.
func (c *Client) UserNews(ctx context.Context, page, perPage int) (feed.Page[News], error) {
	return c.getNewsPage(ctx, "/news/", pageQuery(page, perPage))
}

// ForYouNews returns a page of the personalized "For You" feed.
func (c *Client) ForYouNews(ctx context.Context, page, perPage int) (feed.Page[News], error) {
	return c.getNewsPage(ctx, "/news/for-you", pageQuery(page, perPage))
}

// NewsByTopic returns a page of news for one topic.
func (c *Client) NewsByTopic(ctx context.Context, topicID int64, page, perPage int) (feed.Page[News], error) {
	return c.getNewsPage(ctx, fmt.Sprintf("/news/topic/%d", topicID), pageQuery(page, perPage))
}

// NewsByID returns one article.
func (c *Client) NewsByID(ctx context.Context, newsID int64) (*News, error) {
	var n News
	if err := c.Get(ctx, fmt.Sprintf("/news/%d", newsID), nil, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// FavoriteNews saves an article for the current user.
func (c *Client) FavoriteNews(ctx context.Context, newsID int64) error {
	if err := c.Post(ctx, fmt.Sprintf("/news/%d/favorite", newsID), nil, nil); err != nil {
		return err
	}
	c.InvalidateCache(ctx, savedNewsPath)
	return nil
}

// UnfavoriteNews removes an article from the saved list.
func (c *Client) UnfavoriteNews(ctx context.Context, newsID int64) error {
	if err := c.Put(ctx, fmt.Sprintf("/news/%d/favorite", newsID), nil, nil); err != nil {
		return err
	}
	c.InvalidateCache(ctx, savedNewsPath)
	return nil
}

// SavedNews returns the user's saved articles.
func (c *Client) SavedNews(ctx context.Context) ([]News, error) {
	page, err := c.getNewsPage(ctx, savedNewsPath, nil)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// AddNewsToHistory records that the user opened an article.
func (c *Client) AddNewsToHistory(ctx context.Context, newsID int64) error {
	if err := c.Post(ctx, fmt.Sprintf("/news/%d/history", newsID), nil, nil); err != nil {
		return err
	}
	c.InvalidateCache(ctx, "/news/history")
	return nil
}

// History returns a page of the reading history. perPage defaults to 50.
func (c *Client) History(ctx context.Context, page, perPage int) (feed.Page[News], error) {
	if perPage < 1 {
		perPage = DefaultHistoryPerPage
	}
	return c.getNewsPage(ctx, "/news/history", pageQuery(page, perPage))
}
