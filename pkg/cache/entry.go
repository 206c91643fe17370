package cache

import (
	"net/http"
	"time"
)

// Entry is a cached GET response together with the validators needed to
// revalidate it.
type Entry struct {
	Body        []byte `json:"body"`
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`

	// ETag is sent back as If-None-Match
	ETag string `json:"etag,omitempty"`

	// LastModified is sent back as If-Modified-Since when there is no ETag
	LastModified time.Time `json:"last_modified"`

	StoredAt   time.Time `json:"stored_at"`
	FreshUntil time.Time `json:"fresh_until"`
}

// Expired reports whether the entry is past its freshness lifetime.
func (e *Entry) Expired() bool {
	return !time.Now().Before(e.FreshUntil)
}

// TTL is the remaining lifetime, never negative.
func (e *Entry) TTL() time.Duration {
	return max(time.Until(e.FreshUntil), 0)
}

// Age is the time since the entry was stored.
func (e *Entry) Age() time.Duration {
	return time.Since(e.StoredAt)
}

// Revalidatable reports whether the entry carries a validator.
func (e *Entry) Revalidatable() bool {
	return e != nil && (e.ETag != "" || !e.LastModified.IsZero())
}

// AddValidators sets If-None-Match, or If-Modified-Since when only a
// modification time is known. It reports whether a header was set.
func (e *Entry) AddValidators(req *http.Request) bool {
	switch {
	case e == nil || req == nil:
		return false
	case e.ETag != "":
		req.Header.Set("If-None-Match", e.ETag)
	case !e.LastModified.IsZero():
		req.Header.Set("If-Modified-Since", e.LastModified.UTC().Format(http.TimeFormat))
	default:
		return false
	}
	ConditionalRequestsSent.Inc()
	return true
}
