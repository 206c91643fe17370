package client

import (
	"context"
	"fmt"
	"strings"
)

const customTopicsPath = "/topics/custom"

// StandardTopics lists the system topics.
func (c *Client) StandardTopics(ctx context.Context) ([]Topic, error) {
	var topics []Topic
	if err := c.Get(ctx, "/topics/standard", nil, &topics); err != nil {
		return nil, err
	}
	return topics, nil
}

// PreferredTopics lists the user's custom topics.
func (c *Client) PreferredTopics(ctx context.Context) ([]Topic, error) {
	var topics []Topic
	if err := c.Get(ctx, customTopicsPath, nil, &topics); err != nil {
		return nil, err
	}
	return topics, nil
}

// AddPreferredTopic adds a custom topic by name. Whitespace is collapsed
// the way the backend stores names.
func (c *Client) AddPreferredTopic(ctx context.Context, name string) (*Topic, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return nil, fmt.Errorf("topic name cannot be empty")
	}

	var topic Topic
	if err := c.Post(ctx, customTopicsPath, map[string]string{"name": name}, &topic); err != nil {
		return nil, err
	}
	c.InvalidateCache(ctx, customTopicsPath)
	c.invalidateFeeds(ctx)
	return &topic, nil
}

// RemovePreferredTopic removes a custom topic.
func (c *Client) RemovePreferredTopic(ctx context.Context, topicID int64) error {
	if err := c.Delete(ctx, fmt.Sprintf("%s/%d", customTopicsPath, topicID), nil); err != nil {
		return err
	}
	c.InvalidateCache(ctx, customTopicsPath)
	c.invalidateFeeds(ctx)
	return nil
}
