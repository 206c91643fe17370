package cache

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResponse(status int, headers map[string]string, body string) *http.Response {
	h := make(http.Header)
	for k, v := range headers {
		h.Set(k, v)
	}
	return &http.Response{
		StatusCode: status,
		Header:     h,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestFromResponse(t *testing.T) {
	modified := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	resp := newResponse(http.StatusOK, map[string]string{
		"Content-Type":  "application/json",
		"ETag":          `"v1"`,
		"Last-Modified": modified.Format(http.TimeFormat),
		"Cache-Control": "private, max-age=60",
		"Set-Cookie":    "access_token_cookie=secret",
	}, `{"success":true,"data":[]}`)

	entry, err := FromResponse(resp, time.Minute)
	require.NoError(t, err)
	require.NotNil(t, entry)

	assert.Equal(t, []byte(`{"success":true,"data":[]}`), entry.Body)
	assert.Equal(t, http.StatusOK, entry.Status)
	assert.Equal(t, "application/json", entry.ContentType)
	assert.Equal(t, `"v1"`, entry.ETag)
	assert.True(t, entry.LastModified.Equal(modified))
	assert.InDelta(t, 60, entry.TTL().Seconds(), 2)

	// The caller can still read the body.
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"success":true,"data":[]}`, string(body))
}

func TestFromResponse_NoStore(t *testing.T) {
	resp := newResponse(http.StatusOK, map[string]string{"Cache-Control": "no-store"}, "secret")

	entry, err := FromResponse(resp, time.Minute)
	require.NoError(t, err)
	assert.Nil(t, entry)

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "secret", string(body))
}

func TestFromResponse_Nil(t *testing.T) {
	_, err := FromResponse(nil, time.Minute)
	assert.Error(t, err)
}

func TestFreshUntil(t *testing.T) {
	now := time.Now()
	future := now.Add(10 * time.Minute).UTC().Truncate(time.Second)

	tests := []struct {
		name    string
		headers map[string]string
		want    time.Time
	}{
		{"max-age", map[string]string{"Cache-Control": "max-age=300"}, now.Add(5 * time.Minute)},
		{"max-age among directives", map[string]string{"Cache-Control": "private, MAX-AGE=30"}, now.Add(30 * time.Second)},
		{"max-age beats expires", map[string]string{"Cache-Control": "max-age=30", "Expires": future.Format(http.TimeFormat)}, now.Add(30 * time.Second)},
		{"no-cache", map[string]string{"Cache-Control": "no-cache"}, now},
		{"no-store", map[string]string{"Cache-Control": "no-store, max-age=60"}, now},
		{"expires", map[string]string{"Expires": future.Format(http.TimeFormat)}, future},
		{"expires in the past", map[string]string{"Expires": now.Add(-time.Hour).UTC().Format(http.TimeFormat)}, now},
		{"invalid expires", map[string]string{"Expires": "0"}, now},
		{"invalid max-age falls back", map[string]string{"Cache-Control": "max-age=soon"}, now.Add(time.Minute)},
		{"fallback", nil, now.Add(time.Minute)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := make(http.Header)
			for k, v := range tt.headers {
				h.Set(k, v)
			}
			got := FreshUntil(h, time.Minute)
			assert.WithinDuration(t, tt.want, got, 2*time.Second)
		})
	}
}

func TestStorable(t *testing.T) {
	assert.True(t, Storable(http.Header{}))
	assert.True(t, Storable(http.Header{"Cache-Control": {"private, max-age=60"}}))
	assert.True(t, Storable(http.Header{"Cache-Control": {"no-cache"}}))
	assert.False(t, Storable(http.Header{"Cache-Control": {"private, No-Store"}}))
}

func TestEntry_Response(t *testing.T) {
	entry := &Entry{
		Body:        []byte(`{"success":true}`),
		Status:      http.StatusOK,
		ContentType: "application/json",
		ETag:        `"v1"`,
		StoredAt:    time.Now().Add(-5 * time.Second),
	}
	req, _ := http.NewRequest(http.MethodGet, "http://synapse.test/api/topics/standard", nil)

	resp := entry.Response(req)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "200 OK", resp.Status)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, `"v1"`, resp.Header.Get("ETag"))
	assert.Equal(t, "5", resp.Header.Get("Age"))
	assert.Same(t, req, resp.Request)
	assert.Equal(t, int64(len(entry.Body)), resp.ContentLength)

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, `{"success":true}`, string(body))

	// Each response reads the body from the start.
	again, _ := io.ReadAll(entry.Response(req).Body)
	assert.Equal(t, body, again)
}
