package handlers

import "time"

// LinkBody is the JSON representation of a short link.
type LinkBody struct {
	ID          string    `doc:"The link id"        example:"5b0c3f3e-8f43-4d0e-9f55-0b3c1d2e4f60" json:"id"`
	ShortCode   string    `doc:"The short code"     example:"aB3xY9"                               json:"shortCode"`
	ShortURL    string    `doc:"The full short URL" example:"http://localhost:5000/aB3xY9"          json:"shortUrl"`
	OriginalURL string    `doc:"The original URL"   example:"https://example.com/very/long/path"   json:"originalUrl"`
	Clicks      int64     `doc:"Number of redirects served"                                        json:"clicks"`
	CreatedAt   time.Time `doc:"Creation time"                                                     json:"createdAt"`
}

// CreateShortURLRequest is the request body for creating a short URL.
type CreateShortURLRequest struct {
	Body struct {
		OriginalURL string `doc:"The URL to shorten" example:"https://example.com/very/long/path" json:"originalUrl"`
	}
}

// CreateShortURLResponse is the response for a created or existing short URL.
type CreateShortURLResponse struct {
	Status   int
	Location string `doc:"The short URL location" header:"Location"`
	Body     struct {
		Success bool `json:"success"`
		LinkBody
	}
}

// RedirectRequest is the request for redirecting a short URL.
type RedirectRequest struct {
	Code string `doc:"The short code" example:"aB3xY9" path:"code"`
}

// RedirectResponse redirects the client to the original URL.
type RedirectResponse struct {
	Status   int
	Location string `header:"Location"`
}

// LinkIDRequest identifies a link by id.
type LinkIDRequest struct {
	ID string `doc:"The link id" path:"id"`
}

// ListURLsResponse lists every link, newest first.
type ListURLsResponse struct {
	Body []LinkBody
}

// GetURLResponse is a single link.
type GetURLResponse struct {
	Body LinkBody
}

// UpdateURLRequest replaces the target of a link.
type UpdateURLRequest struct {
	ID   string `doc:"The link id" path:"id"`
	Body struct {
		OriginalURL string `doc:"The new target URL" example:"https://example.com/new" json:"originalUrl"`
	}
}

// UpdateURLResponse is the updated link.
type UpdateURLResponse struct {
	Body struct {
		Success bool `json:"success"`
		LinkBody
	}
}

// DeleteURLResponse acknowledges a deletion.
type DeleteURLResponse struct {
	Body struct {
		Success bool   `json:"success"`
		Message string `example:"URL deleted successfully" json:"message"`
	}
}

// StatsResponse summarizes all links.
type StatsResponse struct {
	Body struct {
		TotalURLs      int       `json:"totalUrls"`
		TotalClicks    int64     `json:"totalClicks"`
		MostClickedURL *LinkBody `doc:"Null when there are no links" json:"mostClickedUrl"`
		RecentURLs     int       `doc:"Links created in the last 24 hours" json:"recentUrls"`
	}
}
