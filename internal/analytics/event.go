package analytics

import "time"

// Event topics.
const (
	TopicLinkCreated = "link.created"
	TopicLinkVisited = "link.visited"
)

// LinkCreatedEvent represents an event emitted when a new short link is allocated.
type LinkCreatedEvent struct {
	LinkID      string    `json:"linkId"`
	Code        string    `json:"code"`
	OriginalURL string    `json:"originalUrl"`
	ShortURL    string    `json:"shortUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	ClientIP    string    `json:"clientIp"`
	UserAgent   string    `json:"userAgent"`
}

// LinkVisitedEvent represents an event emitted when a short link is resolved.
type LinkVisitedEvent struct {
	Code      string    `json:"code"`
	VisitedAt time.Time `json:"visitedAt"`
	ClientIP  string    `json:"clientIp"`
	UserAgent string    `json:"userAgent"`
	Referrer  string    `json:"referrer"`
}
