package entity

import "time"

// NewsItem is a news-like item fed to the event classification collaborator.
type NewsItem struct {
	Headline    string    `json:"headline"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
}
