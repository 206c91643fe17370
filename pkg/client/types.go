package client

import (
	"strings"
	"time"
)

// News is an article as returned by the news endpoints.
type News struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	ImageURL    string `json:"image_url,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

// publishedLayouts covers ISO 8601 with and without a zone.
var publishedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Published parses PublishedAt. Times without a zone are taken as UTC.
func (n News) Published() (time.Time, bool) {
	s := strings.TrimSpace(n.PublishedAt)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Topic is a standard or user-defined topic.
type Topic struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	State int    `json:"state,omitempty"`
}

// Source is a news source.
type Source struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// User is the authenticated user's profile.
type User struct {
	ID        int64  `json:"id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Birthdate string `json:"birthdate,omitempty"`
}

// Registration is the payload for creating an account.
type Registration struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileUpdate carries the profile fields to change. Empty fields are left out.
type ProfileUpdate struct {
	FullName  string `json:"full_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Birthdate string `json:"birthdate,omitempty"`
}
