package recipes

import "context"

// ListMode selects which feed a list query serves.
type ListMode string

const (
	ListGeneral   ListMode = "general"
	ListSearch    ListMode = "search"
	ListCreated   ListMode = "created"
	ListFavorited ListMode = "favorited"
)

// ListFilter narrows a list query. Search applies in ListSearch mode,
// UserID in ListCreated and ListFavorited modes. CategoryID, when set,
// narrows any mode.
type ListFilter struct {
	Mode       ListMode
	Search     string
	UserID     string
	CategoryID *int64
}

// Repository is the storage contract for recipe rows and their one-shot
// side tables (ratings, favorites).
type Repository interface {
	Insert(ctx context.Context, r *Recipe) error
	Update(ctx context.Context, r *Recipe) error
	GetByID(ctx context.Context, id string) (*Recipe, error)
	DeleteByID(ctx context.Context, id string) error
	List(ctx context.Context, f ListFilter) ([]*Summary, error)
	SetRating(ctx context.Context, userID, recipeID string, rating int) error
	ToggleFavorite(ctx context.Context, userID, recipeID string) (bool, error)
	IncrementViews(ctx context.Context, id string) error
}
