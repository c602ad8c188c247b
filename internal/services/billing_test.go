package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lilybloom/babynames-backend/internal/repos"
	"github.com/lilybloom/babynames-backend/internal/types"
)

func TestPremiumForEvent(t *testing.T) {
	cases := []struct {
		name        string
		event       BillingEvent
		wantPremium bool
		wantApply   bool
	}{
		{
			name:        "checkout_completed_grants",
			event:       BillingEvent{Type: "checkout.completed"},
			wantPremium: true,
			wantApply:   true,
		},
		{
			name:        "subscription_updated_active",
			event:       BillingEvent{Type: "subscription.updated", Status: "active"},
			wantPremium: true,
			wantApply:   true,
		},
		{
			name:        "subscription_updated_past_due",
			event:       BillingEvent{Type: "subscription.updated", Status: "past_due"},
			wantPremium: false,
			wantApply:   true,
		},
		{
			name:        "subscription_canceled_revokes",
			event:       BillingEvent{Type: "subscription.canceled"},
			wantPremium: false,
			wantApply:   true,
		},
		{
			name:        "payment_failed_revokes",
			event:       BillingEvent{Type: "payment.failed"},
			wantPremium: false,
			wantApply:   true,
		},
		{
			name:      "unknown_type_ignored",
			event:     BillingEvent{Type: "invoice.finalized"},
			wantApply: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			premium, apply := premiumForEvent(&tc.event)
			if apply != tc.wantApply || premium != tc.wantPremium {
				t.Fatalf("premiumForEvent(%+v) = (%v, %v), want (%v, %v)",
					tc.event, premium, apply, tc.wantPremium, tc.wantApply)
			}
		})
	}
}

// fakeReplayGuard is an in-memory stand-in for the redis SETNX/DEL pair.
type fakeReplayGuard struct {
	keys map[string]struct{}
}

func newFakeReplayGuard() *fakeReplayGuard {
	return &fakeReplayGuard{keys: map[string]struct{}{}}
}

func (f *fakeReplayGuard) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.BoolCmd {
	if _, ok := f.keys[key]; ok {
		return goredis.NewBoolResult(false, nil)
	}
	f.keys[key] = struct{}{}
	return goredis.NewBoolResult(true, nil)
}

func (f *fakeReplayGuard) Del(ctx context.Context, keys ...string) *goredis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.keys[k]; ok {
			delete(f.keys, k)
			n++
		}
	}
	return goredis.NewIntResult(n, nil)
}

// flakyUserRepo fails the first N premium-flag writes, then delegates.
type flakyUserRepo struct {
	repos.UserRepo
	failuresLeft int
	applies      int
}

func (f *flakyUserRepo) SetPremiumByEmail(ctx context.Context, tx *gorm.DB, email string, premium bool) error {
	if f.failuresLeft > 0 {
		f.failuresLeft--
		return fmt.Errorf("connection reset by peer")
	}
	f.applies++
	return f.UserRepo.SetPremiumByEmail(ctx, tx, email, premium)
}

func newBillingFixture(t *testing.T, failures int) (*gorm.DB, *flakyUserRepo, *fakeReplayGuard, *billingService, *types.User) {
	t.Helper()

	log := mustLogger(t)
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("sqlite open: %v", err)
	}
	if err := db.AutoMigrate(&types.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	user := &types.User{ID: uuid.New(), Email: "parent@example.com", Password: "x"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	repo := &flakyUserRepo{UserRepo: repos.NewUserRepo(db, log), failuresLeft: failures}
	guard := newFakeReplayGuard()
	svc := &billingService{db: db, log: log.With("service", "BillingService"), userRepo: repo, rdb: guard}
	return db, repo, guard, svc, user
}

func TestHandleEventReplayedDeliverySkipped(t *testing.T) {
	_, repo, _, svc, _ := newBillingFixture(t, 0)
	ctx := context.Background()

	event := &BillingEvent{ID: "evt_1", Type: "checkout.completed", CustomerEmail: "parent@example.com"}
	for i := 0; i < 2; i++ {
		if err := svc.HandleEvent(ctx, event); err != nil {
			t.Fatalf("HandleEvent %d: %v", i, err)
		}
	}

	if repo.applies != 1 {
		t.Fatalf("premium writes = %d, want 1 (replay must be skipped)", repo.applies)
	}
}

func TestHandleEventFailedApplyReleasesClaim(t *testing.T) {
	db, repo, guard, svc, user := newBillingFixture(t, 1)
	ctx := context.Background()

	event := &BillingEvent{ID: "evt_2", Type: "checkout.completed", CustomerEmail: "parent@example.com"}

	// First delivery: the entitlement write fails, the handler surfaces an
	// error so the processor redelivers.
	if err := svc.HandleEvent(ctx, event); err == nil {
		t.Fatal("failed apply must surface an error")
	}
	if len(guard.keys) != 0 {
		t.Fatalf("claim retained after failed apply: %v", guard.keys)
	}

	// Redelivery is not mistaken for a replay; the event lands.
	if err := svc.HandleEvent(ctx, event); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if repo.applies != 1 {
		t.Fatalf("premium writes = %d, want 1", repo.applies)
	}
	var reloaded types.User
	if err := db.First(&reloaded, "id = ?", user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if !reloaded.IsPremium {
		t.Fatal("premium flag not applied on redelivery")
	}

	// A further delivery of the settled event is a replay and skipped.
	if err := svc.HandleEvent(ctx, event); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if repo.applies != 1 {
		t.Fatalf("premium writes = %d after replay, want 1", repo.applies)
	}
}
