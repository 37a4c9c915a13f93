package shortener

import "context"

// Repository persists links. Implementations return ErrNotFound for missing
// records and ErrConflict when Insert hits an existing short code.
type Repository interface {
	// Insert stores a new link and assigns its ID.
	Insert(ctx context.Context, link *Link) error
	GetByCode(ctx context.Context, code Code) (*Link, error)
	GetByOriginalURL(ctx context.Context, originalURL string) (*Link, error)
	GetByID(ctx context.Context, id string) (*Link, error)
	// List returns every link, newest first.
	List(ctx context.Context) ([]*Link, error)
	// Save replaces the original URL of an existing link.
	Save(ctx context.Context, link *Link) error
	IncrementClicks(ctx context.Context, code Code) error
	Delete(ctx context.Context, id string) error
}
