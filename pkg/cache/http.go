package cache

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultTTL applies when a response carries no freshness headers.
const DefaultTTL = 2 * time.Minute

// FromResponse reads resp into an Entry. resp.Body is replaced so the
// caller can still read it. The entry is nil when the response forbids
// storing it.
func FromResponse(resp *http.Response, fallbackTTL time.Duration) (*Entry, error) {
	if resp == nil {
		return nil, fmt.Errorf("response cannot be nil")
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	if !Storable(resp.Header) {
		return nil, nil
	}

	now := time.Now()
	entry := &Entry{
		Body:        body,
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		ETag:        resp.Header.Get("ETag"),
		StoredAt:    now,
		FreshUntil:  freshUntil(resp.Header, fallbackTTL, now),
	}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			entry.LastModified = t
		}
	}
	return entry, nil
}

// Response rebuilds an HTTP response for req from the entry.
func (e *Entry) Response(req *http.Request) *http.Response {
	header := make(http.Header)
	if e.ContentType != "" {
		header.Set("Content-Type", e.ContentType)
	}
	if e.ETag != "" {
		header.Set("ETag", e.ETag)
	}
	header.Set("Age", strconv.Itoa(int(e.Age().Seconds())))

	return &http.Response{
		Status:        fmt.Sprintf("%d %s", e.Status, http.StatusText(e.Status)),
		StatusCode:    e.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
}

// Storable reports whether Cache-Control allows keeping the response.
func Storable(headers http.Header) bool {
	for _, d := range directives(headers) {
		if d == "no-store" {
			return false
		}
	}
	return true
}

// FreshUntil derives the expiry from Cache-Control max-age, then Expires,
// then fallbackTTL. no-cache yields an immediate expiry.
func FreshUntil(headers http.Header, fallbackTTL time.Duration) time.Time {
	return freshUntil(headers, fallbackTTL, time.Now())
}

func freshUntil(headers http.Header, fallbackTTL time.Duration, now time.Time) time.Time {
	for _, d := range directives(headers) {
		switch {
		case d == "no-cache", d == "no-store":
			return now
		case strings.HasPrefix(d, "max-age="):
			if secs, err := strconv.Atoi(strings.TrimPrefix(d, "max-age=")); err == nil && secs >= 0 {
				return now.Add(time.Duration(secs) * time.Second)
			}
		}
	}

	if v := headers.Get("Expires"); v != "" {
		t, err := http.ParseTime(v)
		if err != nil || t.Before(now) {
			return now
		}
		return t
	}

	return now.Add(fallbackTTL)
}

func directives(headers http.Header) []string {
	cc := headers.Get("Cache-Control")
	if cc == "" {
		return nil
	}
	parts := strings.Split(cc, ",")
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return parts
}
