package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "gorm.io/gorm/clause"
  "github.com/lilybloom/babynames-backend/internal/logger"
  "github.com/lilybloom/babynames-backend/internal/types"
)

type SeenNameRepo interface {
  CreateIgnoreDuplicates(ctx context.Context, tx *gorm.DB, records []*types.SeenName) error
  ListNameStringsByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]string, error)
}

type seenNameRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewSeenNameRepo(db *gorm.DB, baseLog *logger.Logger) SeenNameRepo {
  repoLog := baseLog.With("repo", "SeenNameRepo")
  return &seenNameRepo{db: db, log: repoLog}
}

// CreateIgnoreDuplicates inserts seen markers; a duplicate (user, name) pair
// already encodes "seen" and is silently skipped.
func (snr *seenNameRepo) CreateIgnoreDuplicates(ctx context.Context, tx *gorm.DB, records []*types.SeenName) error {
  transaction := tx
  if transaction == nil {
    transaction = snr.db
  }

  if len(records) == 0 {
    return nil
  }

  return transaction.WithContext(ctx).
    Clauses(clause.OnConflict{
      Columns:   []clause.Column{{Name: "user_id"}, {Name: "name_id"}},
      DoNothing: true,
    }).
    Create(&records).Error
}

// ListNameStringsByUserID projects the user's whole seen history to display
// name strings, for exclusion-set assembly. Computed fresh per request.
func (snr *seenNameRepo) ListNameStringsByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]string, error) {
  transaction := tx
  if transaction == nil {
    transaction = snr.db
  }

  var results []string
  if err := transaction.WithContext(ctx).
    Model(&types.SeenName{}).
    Joins("JOIN name ON name.id = seen_name.name_id").
    Where("seen_name.user_id = ?", userID).
    Pluck("name.name", &results).Error; err != nil {
    return nil, err
  }
  return results, nil
}
