package client

import (
	"context"
	"fmt"
)

const attachedSourcesPath = "/news_sources/list_all_attached_sources"

// AllSources lists every news source.
func (c *Client) AllSources(ctx context.Context) ([]Source, error) {
	var sources []Source
	if err := c.Get(ctx, "/news_sources/list_all", nil, &sources); err != nil {
		return nil, err
	}
	return sources, nil
}

// AttachedSources lists the sources the user follows.
func (c *Client) AttachedSources(ctx context.Context) ([]Source, error) {
	var sources []Source
	if err := c.Get(ctx, attachedSourcesPath, nil, &sources); err != nil {
		return nil, err
	}
	return sources, nil
}

// AttachSource follows a source.
func (c *Client) AttachSource(ctx context.Context, sourceID int64) error {
	if err := c.Post(ctx, "/news_sources/attach", map[string]int64{"source_id": sourceID}, nil); err != nil {
		return err
	}
	c.InvalidateCache(ctx, attachedSourcesPath)
	c.invalidateFeeds(ctx)
	return nil
}

// DetachSource unfollows a source.
func (c *Client) DetachSource(ctx context.Context, sourceID int64) error {
	if err := c.Delete(ctx, fmt.Sprintf("/news_sources/detach/%d", sourceID), nil); err != nil {
		return err
	}
	c.InvalidateCache(ctx, attachedSourcesPath)
	c.invalidateFeeds(ctx)
	return nil
}
