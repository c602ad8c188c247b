package services

import (
  "context"
  "errors"
  "fmt"
  "time"

  goredis "github.com/redis/go-redis/v9"
  "gorm.io/gorm"

  "github.com/lilybloom/babynames-backend/internal/logger"
  "github.com/lilybloom/babynames-backend/internal/normalization"
  "github.com/lilybloom/babynames-backend/internal/repos"
)

const billingEventDedupTTL = 24 * time.Hour

// BillingEvent is a payment-processor lifecycle notification. The only
// state this subsystem derives from billing is the premium flag.
type BillingEvent struct {
  ID            string `json:"id" binding:"required"`
  Type          string `json:"type" binding:"required"`
  CustomerEmail string `json:"customer_email" binding:"required"`
  Status        string `json:"status"`
}

type BillingService interface {
  HandleEvent(ctx context.Context, event *BillingEvent) error
}

// replayGuard is the slice of the redis client the dedup needs; satisfied
// by *goredis.Client.
type replayGuard interface {
  SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.BoolCmd
  Del(ctx context.Context, keys ...string) *goredis.IntCmd
}

type billingService struct {
  db       *gorm.DB
  log      *logger.Logger
  userRepo repos.UserRepo
  rdb      replayGuard
}

// NewBillingService wires the webhook consumer. rdb may be nil; replayed
// deliveries are then applied again, which is safe because the premium flag
// write is idempotent per event.
func NewBillingService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, rdb *goredis.Client) BillingService {
  serviceLog := log.With("service", "BillingService")
  svc := &billingService{db: db, log: serviceLog, userRepo: userRepo}
  if rdb == nil {
    serviceLog.Warn("Redis not configured; billing webhook replay guard disabled")
  } else {
    svc.rdb = rdb
  }
  return svc
}

// premiumForEvent maps a lifecycle event onto the flag value it implies.
// Unknown event types are acknowledged without effect.
func premiumForEvent(event *BillingEvent) (premium bool, apply bool) {
  switch event.Type {
  case "checkout.completed":
    return true, true
  case "subscription.updated":
    return event.Status == "active" || event.Status == "trialing", true
  case "subscription.canceled", "payment.failed":
    return false, true
  default:
    return false, false
  }
}

func (bs *billingService) HandleEvent(ctx context.Context, event *BillingEvent) error {
  claimed, err := bs.claimEvent(ctx, event.ID)
  if err != nil {
    bs.log.Warn("Billing dedup check failed; applying event anyway", "event_id", event.ID, "error", err)
    claimed = true
  }
  if !claimed {
    bs.log.Info("Skipping replayed billing event", "event_id", event.ID)
    return nil
  }

  premium, apply := premiumForEvent(event)
  if !apply {
    bs.log.Info("Ignoring unhandled billing event type", "event_id", event.ID, "type", event.Type)
    return nil
  }

  email := normalization.ParseInputString(event.CustomerEmail)
  if err := bs.userRepo.SetPremiumByEmail(ctx, nil, email, premium); err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      // Processor retries on failure responses; an unknown customer is a
      // logged skip, not a redelivery loop.
      bs.log.Warn("Billing event for unknown customer", "event_id", event.ID)
      return nil
    }
    // The error response makes the processor redeliver; the claim must not
    // outlive the failed apply or the retry would be skipped as a replay.
    bs.releaseEvent(ctx, event.ID)
    return fmt.Errorf("failed to apply billing event %s: %w", event.ID, err)
  }
  bs.log.Info("Applied billing event", "event_id", event.ID, "type", event.Type, "premium", premium)
  return nil
}

// claimEvent takes the delivery claim for an event ID with SETNX; a second
// delivery of the same ID within the TTL window loses the claim and is a
// replay.
func (bs *billingService) claimEvent(ctx context.Context, eventID string) (bool, error) {
  if bs.rdb == nil {
    return true, nil
  }
  return bs.rdb.SetNX(ctx, "billing:event:"+eventID, 1, billingEventDedupTTL).Result()
}

func (bs *billingService) releaseEvent(ctx context.Context, eventID string) {
  if bs.rdb == nil {
    return
  }
  if err := bs.rdb.Del(ctx, "billing:event:"+eventID).Err(); err != nil {
    bs.log.Warn("Failed to release billing event claim", "event_id", eventID, "error", err)
  }
}
