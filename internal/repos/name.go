package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "gorm.io/gorm/clause"
  "github.com/lilybloom/babynames-backend/internal/logger"
  "github.com/lilybloom/babynames-backend/internal/types"
)

type NameRepo interface {
  CreateIgnoreDuplicates(ctx context.Context, tx *gorm.DB, names []*types.Name) error
  GetByIDs(ctx context.Context, tx *gorm.DB, nameIDs []uuid.UUID) ([]*types.Name, error)
  GetByNormalizedNames(ctx context.Context, tx *gorm.DB, normalized []string) ([]*types.Name, error)
}

type nameRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewNameRepo(db *gorm.DB, baseLog *logger.Logger) NameRepo {
  repoLog := baseLog.With("repo", "NameRepo")
  return &nameRepo{db: db, log: repoLog}
}

// CreateIgnoreDuplicates inserts canonical rows with ON CONFLICT DO NOTHING
// on normalized_name. A concurrent request creating the same name is not an
// error; the caller re-fetches to resolve the surviving row.
func (nr *nameRepo) CreateIgnoreDuplicates(ctx context.Context, tx *gorm.DB, names []*types.Name) error {
  transaction := tx
  if transaction == nil {
    transaction = nr.db
  }

  if len(names) == 0 {
    return nil
  }

  return transaction.WithContext(ctx).
    Clauses(clause.OnConflict{
      Columns:   []clause.Column{{Name: "normalized_name"}},
      DoNothing: true,
    }).
    Create(&names).Error
}

func (nr *nameRepo) GetByIDs(ctx context.Context, tx *gorm.DB, nameIDs []uuid.UUID) ([]*types.Name, error) {
  transaction := tx
  if transaction == nil {
    transaction = nr.db
  }

  var results []*types.Name
  if len(nameIDs) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("id IN ?", nameIDs).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (nr *nameRepo) GetByNormalizedNames(ctx context.Context, tx *gorm.DB, normalized []string) ([]*types.Name, error) {
  transaction := tx
  if transaction == nil {
    transaction = nr.db
  }

  var results []*types.Name
  if len(normalized) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("normalized_name IN ?", normalized).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}
