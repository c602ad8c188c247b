package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "gorm.io/gorm/clause"
  "github.com/lilybloom/babynames-backend/internal/logger"
  "github.com/lilybloom/babynames-backend/internal/types"
)

type FavoriteNameRepo interface {
  CreateIgnoreDuplicates(ctx context.Context, tx *gorm.DB, favorites []*types.FavoriteName) error
  ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.FavoriteName, error)
  DeleteByIDForUser(ctx context.Context, tx *gorm.DB, favoriteID, userID uuid.UUID) (int64, error)
}

type favoriteNameRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewFavoriteNameRepo(db *gorm.DB, baseLog *logger.Logger) FavoriteNameRepo {
  repoLog := baseLog.With("repo", "FavoriteNameRepo")
  return &favoriteNameRepo{db: db, log: repoLog}
}

func (fnr *favoriteNameRepo) CreateIgnoreDuplicates(ctx context.Context, tx *gorm.DB, favorites []*types.FavoriteName) error {
  transaction := tx
  if transaction == nil {
    transaction = fnr.db
  }

  if len(favorites) == 0 {
    return nil
  }

  return transaction.WithContext(ctx).
    Clauses(clause.OnConflict{
      Columns:   []clause.Column{{Name: "user_id"}, {Name: "name_id"}},
      DoNothing: true,
    }).
    Create(&favorites).Error
}

func (fnr *favoriteNameRepo) ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.FavoriteName, error) {
  transaction := tx
  if transaction == nil {
    transaction = fnr.db
  }

  var results []*types.FavoriteName
  if err := transaction.WithContext(ctx).
    Preload("Name").
    Where("user_id = ?", userID).
    Order("created_at DESC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (fnr *favoriteNameRepo) DeleteByIDForUser(ctx context.Context, tx *gorm.DB, favoriteID, userID uuid.UUID) (int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = fnr.db
  }

  result := transaction.WithContext(ctx).
    Where("id = ? AND user_id = ?", favoriteID, userID).
    Delete(&types.FavoriteName{})
  return result.RowsAffected, result.Error
}
