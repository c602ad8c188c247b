package services

import (
  "context"
  "fmt"
  "gorm.io/gorm"
  "github.com/google/uuid"
  "github.com/lilybloom/babynames-backend/internal/logger"
  "github.com/lilybloom/babynames-backend/internal/normalization"
  "github.com/lilybloom/babynames-backend/internal/repos"
  "github.com/lilybloom/babynames-backend/internal/requestdata"
  "github.com/lilybloom/babynames-backend/internal/types"
)

type FavoriteService interface {
  SaveFavorite(ctx context.Context, suggestion NameSuggestion) (*types.FavoriteName, error)
  ListFavorites(ctx context.Context) ([]*types.FavoriteName, error)
  RemoveFavorite(ctx context.Context, favoriteID uuid.UUID) error
}

type favoriteService struct {
  db           *gorm.DB
  log          *logger.Logger
  nameRepo     repos.NameRepo
  favoriteRepo repos.FavoriteNameRepo
}

func NewFavoriteService(
  db *gorm.DB,
  log *logger.Logger,
  nameRepo repos.NameRepo,
  favoriteRepo repos.FavoriteNameRepo,
) FavoriteService {
  serviceLog := log.With("service", "FavoriteService")
  return &favoriteService{
    db:           db,
    log:          serviceLog,
    nameRepo:     nameRepo,
    favoriteRepo: favoriteRepo,
  }
}

// SaveFavorite shortlists a name. This is the second path that lazily
// creates canonical rows: saving a name the store has never seen inserts it
// through the same conflict-tolerant ensure as the pipeline.
func (fs *favoriteService) SaveFavorite(ctx context.Context, suggestion NameSuggestion) (*types.FavoriteName, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, fmt.Errorf("no authenticated user in context")
  }
  suggestion.Gender = normalization.ParseInputString(suggestion.Gender)
  if suggestion.Name == "" || !types.ValidGender(suggestion.Gender) {
    return nil, fmt.Errorf("a name and a valid gender are required")
  }

  canonical, err := ensureCanonicalName(ctx, fs.nameRepo, suggestion)
  if err != nil {
    return nil, fmt.Errorf("failed to resolve canonical name: %w", err)
  }

  favorite := &types.FavoriteName{
    ID:     uuid.New(),
    UserID: rd.UserID,
    NameID: canonical.ID,
  }
  if err := fs.favoriteRepo.CreateIgnoreDuplicates(ctx, nil, []*types.FavoriteName{favorite}); err != nil {
    return nil, fmt.Errorf("failed to save favorite: %w", err)
  }
  favorite.Name = canonical
  return favorite, nil
}

func (fs *favoriteService) ListFavorites(ctx context.Context) ([]*types.FavoriteName, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, fmt.Errorf("no authenticated user in context")
  }
  return fs.favoriteRepo.ListByUserID(ctx, nil, rd.UserID)
}

func (fs *favoriteService) RemoveFavorite(ctx context.Context, favoriteID uuid.UUID) error {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return fmt.Errorf("no authenticated user in context")
  }
  deleted, err := fs.favoriteRepo.DeleteByIDForUser(ctx, nil, favoriteID, rd.UserID)
  if err != nil {
    return fmt.Errorf("failed to remove favorite: %w", err)
  }
  if deleted == 0 {
    return gorm.ErrRecordNotFound
  }
  return nil
}
