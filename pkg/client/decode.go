package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/synapse-news/synapse-client/pkg/feed"
)

// ErrMalformedPage is returned by DecodePage for bodies that match none of
// the known page shapes.
var ErrMalformedPage = errors.New("malformed page response")

// pageBody is the object form of a page: the list under "items" or "news".
type pageBody[T any] struct {
	Items      *[]T             `json:"items"`
	News       *[]T             `json:"news"`
	Pagination *feed.Pagination `json:"pagination"`
}

// DecodePage normalizes a page response. It accepts a bare array or an
// object holding the list under "items" or "news", optionally with
// pagination metadata, after unwrapping a "data" envelope.
//
// On ErrMalformedPage the returned page is empty and still usable.
func DecodePage[T any](raw []byte) (feed.Page[T], error) {
	data := bytes.TrimSpace(unwrapData(raw))
	if len(data) == 0 {
		return feed.Page[T]{}, fmt.Errorf("%w: empty body", ErrMalformedPage)
	}

	switch data[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return feed.Page[T]{}, fmt.Errorf("%w: %v", ErrMalformedPage, err)
		}
		return feed.Page[T]{Items: items}, nil

	case '{':
		var body pageBody[T]
		if err := json.Unmarshal(data, &body); err != nil {
			return feed.Page[T]{}, fmt.Errorf("%w: %v", ErrMalformedPage, err)
		}
		page := feed.Page[T]{Pagination: body.Pagination}
		switch {
		case body.Items != nil:
			page.Items = *body.Items
		case body.News != nil:
			page.Items = *body.News
		default:
			return feed.Page[T]{}, fmt.Errorf("%w: no items or news list", ErrMalformedPage)
		}
		return page, nil
	}

	return feed.Page[T]{}, fmt.Errorf("%w: unexpected JSON %q", ErrMalformedPage, truncate(data, 32))
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
