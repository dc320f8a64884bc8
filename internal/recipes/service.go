package recipes

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"recipebox/internal/common"
	"recipebox/internal/dbx"
	"recipebox/internal/form"
	"recipebox/internal/listcache"
	"recipebox/internal/logging"
	"recipebox/internal/storage"
)

// ObjectStore is the slice of the object store the service needs for
// cleanup of orphaned images.
type ObjectStore interface {
	Delete(ctx context.Context, bucket common.Bucket, path string) error
}

const listCachePrefix = "recipes/"

// Service is the persistence collaborator consumed by form.Session. It owns
// the row writes, the post-commit deletion of orphaned images, and the
// invalidation of cached list queries. Row write failures wrap
// common.ErrPersistence; image cleanup is best-effort and only logged.
type Service struct {
	db    *sql.DB
	store ObjectStore
	cache *listcache.Cache[[]*Summary]
	log   logging.Logger

	newRepo func(dbx.DBTX) Repository
}

func NewService(db *sql.DB, store ObjectStore, cache *listcache.Cache[[]*Summary], log logging.Logger) *Service {
	return &Service{
		db:      db,
		store:   store,
		cache:   cache,
		log:     log,
		newRepo: func(tx dbx.DBTX) Repository { return NewSQLRepository(tx) },
	}
}

// CreateRecord inserts a new recipe for userID and returns its id.
func (s *Service) CreateRecord(ctx context.Context, userID string, data *form.Data) (string, error) {
	now := time.Now().UTC()
	rec := &Recipe{
		ID:           uuid.NewString(),
		UserID:       userID,
		Title:        data.Title,
		Description:  data.Description,
		MainImage:    data.MainImage,
		CategoryID:   data.CategoryID,
		Ingredients:  data.Ingredients,
		Instructions: data.Instructions,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.newRepo(s.db).Insert(ctx, rec); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrPersistence, err)
	}

	s.cache.InvalidatePrefix(listCachePrefix)
	return rec.ID, nil
}

// UpdateRecord rewrites the recipe row and, once the write committed,
// deletes the remote objects listed in imagesToCleanup. Cleanup failures
// never fail the update; the row already references the new images.
func (s *Service) UpdateRecord(ctx context.Context, id string, data *form.Data, imagesToCleanup []string) error {
	rec := &Recipe{
		ID:           id,
		Title:        data.Title,
		Description:  data.Description,
		MainImage:    data.MainImage,
		CategoryID:   data.CategoryID,
		Ingredients:  data.Ingredients,
		Instructions: data.Instructions,
		UpdatedAt:    time.Now().UTC(),
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.newRepo(tx).Update(ctx, rec)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrPersistence, err)
	}

	s.deleteImages(ctx, imagesToCleanup)

	s.cache.InvalidatePrefix(listCachePrefix)
	return nil
}

// DeleteRecord removes the recipe row and then every image it referenced.
func (s *Service) DeleteRecord(ctx context.Context, id string) error {
	repo := s.newRepo(s.db)

	rec, err := repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrPersistence, err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.newRepo(tx).DeleteByID(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrPersistence, err)
	}

	s.deleteImages(ctx, rec.ImageURLs())

	s.cache.InvalidatePrefix(listCachePrefix)
	return nil
}

// List serves feed queries through the list cache.
func (s *Service) List(ctx context.Context, f ListFilter) ([]*Summary, error) {
	category := ""
	if f.CategoryID != nil {
		category = fmt.Sprintf("%d", *f.CategoryID)
	}
	key := fmt.Sprintf("%s%s/%s/%s/%s", listCachePrefix, f.Mode, f.UserID, f.Search, category)
	return s.cache.GetOrLoad(ctx, key, func(ctx context.Context) ([]*Summary, error) {
		return s.newRepo(s.db).List(ctx, f)
	})
}

// Get loads a single recipe, bypassing the list cache.
func (s *Service) Get(ctx context.Context, id string) (*Recipe, error) {
	return s.newRepo(s.db).GetByID(ctx, id)
}

// Rate records userID's rating and refreshes cached lists, which carry
// average ratings.
func (s *Service) Rate(ctx context.Context, userID, recipeID string, rating int) error {
	if err := s.newRepo(s.db).SetRating(ctx, userID, recipeID, rating); err != nil {
		return err
	}
	s.cache.InvalidatePrefix(listCachePrefix)
	return nil
}

// ToggleFavorite flips the favorite mark and reports the new state.
func (s *Service) ToggleFavorite(ctx context.Context, userID, recipeID string) (bool, error) {
	fav, err := s.newRepo(s.db).ToggleFavorite(ctx, userID, recipeID)
	if err != nil {
		return false, err
	}
	s.cache.InvalidatePrefix(listCachePrefix)
	return fav, nil
}

// IncrementViews bumps the view counter without touching cached lists.
func (s *Service) IncrementViews(ctx context.Context, id string) error {
	return s.newRepo(s.db).IncrementViews(ctx, id)
}

func (s *Service) deleteImages(ctx context.Context, urls []string) {
	for _, url := range urls {
		bucket, path, ok := storage.ParseObjectURL(url)
		if !ok {
			s.log.Warn(ctx, "image cleanup skipped, unrecognized url", "url", url)
			continue
		}
		if err := s.store.Delete(ctx, bucket, path); err != nil {
			s.log.Error(ctx, "image cleanup failed", "bucket", bucket, "path", path, "error", err)
		}
	}
}
