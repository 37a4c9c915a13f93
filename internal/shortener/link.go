package shortener

import "time"

// Code represents a short URL code.
type Code string

// Link is the persisted mapping between a short code and its target URL.
type Link struct {
	ID          string
	Code        Code
	OriginalURL string
	Clicks      int64
	CreatedAt   time.Time
}

// Shortened is the outcome of a create call.
type Shortened struct {
	Link     *Link
	ShortURL string
	// Created is false when an existing mapping for the same URL was returned.
	Created bool
}

// Stats summarizes all stored links.
type Stats struct {
	TotalURLs   int
	TotalClicks int64
	MostClicked *Link // nil when there are no links
	RecentURLs  int
}
