package services

import (
  "context"
  "fmt"
  "gorm.io/gorm"
  "github.com/google/uuid"
  "github.com/lilybloom/babynames-backend/internal/logger"
  "github.com/lilybloom/babynames-backend/internal/quota"
  "github.com/lilybloom/babynames-backend/internal/repos"
  "github.com/lilybloom/babynames-backend/internal/requestdata"
  "github.com/lilybloom/babynames-backend/internal/types"
  "time"
)

type UserService interface {
  GetMe(ctx context.Context, tx *gorm.DB) (*Me, error)
}

// Me is the profile view the UI renders: the stored user plus the quota
// as reinterpreted for today, so stale counters never show through.
type Me struct {
  User                 *types.User `json:"user"`
  GenerationsToday     int         `json:"generations_today"`
  GenerationsRemaining *int        `json:"generations_remaining,omitempty"`
}

type userService struct {
  db       *gorm.DB
  log      *logger.Logger
  userRepo repos.UserRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo) UserService {
  serviceLog := log.With("service", "UserService")
  return &userService{db: db, log: serviceLog, userRepo: userRepo}
}

func (us *userService) GetMe(ctx context.Context, tx *gorm.DB) (*Me, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, fmt.Errorf("no authenticated user in context")
  }

  users, err := us.userRepo.GetByIDs(ctx, tx, []uuid.UUID{rd.UserID})
  if err != nil {
    return nil, fmt.Errorf("failed to load user: %w", err)
  }
  if len(users) == 0 {
    return nil, fmt.Errorf("unknown user %s", rd.UserID)
  }
  user := users[0]

  state := quota.State{Date: user.LastGenerationDate, Count: user.GenerationsToday}.Rollover(time.Now())
  me := &Me{User: user, GenerationsToday: state.Count}
  if !user.IsPremium {
    remaining := state.Remaining(false)
    me.GenerationsRemaining = &remaining
  }
  return me, nil
}
