package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lilybloom/babynames-backend/internal/logger"
	"github.com/lilybloom/babynames-backend/internal/quota"
	"github.com/lilybloom/babynames-backend/internal/repos"
	"github.com/lilybloom/babynames-backend/internal/requestdata"
	"github.com/lilybloom/babynames-backend/internal/types"
)

type fakeOracle struct {
	calls      int
	lastPrompt string
	response   string
	err        error
}

func (f *fakeOracle) ChatComplete(ctx context.Context, system, user string, opts ChatOptions) (string, error) {
	f.calls++
	f.lastPrompt = user
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type generationFixture struct {
	db       *gorm.DB
	oracle   *fakeOracle
	service  GenerationService
	userRepo repos.UserRepo
	seenRepo repos.SeenNameRepo
	nameRepo repos.NameRepo
}

func newGenerationFixture(t *testing.T) *generationFixture {
	t.Helper()

	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger init: %v", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("sqlite open: %v", err)
	}
	if err := db.AutoMigrate(&types.User{}, &types.Name{}, &types.SeenName{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	oracle := &fakeOracle{}
	userRepo := repos.NewUserRepo(db, log)
	nameRepo := repos.NewNameRepo(db, log)
	seenRepo := repos.NewSeenNameRepo(db, log)

	return &generationFixture{
		db:       db,
		oracle:   oracle,
		service:  NewGenerationService(db, log, userRepo, nameRepo, seenRepo, oracle),
		userRepo: userRepo,
		seenRepo: seenRepo,
		nameRepo: nameRepo,
	}
}

func (fx *generationFixture) createUser(t *testing.T, premium bool, generationsToday int, lastDate *time.Time) *types.User {
	t.Helper()
	user := &types.User{
		ID:                 uuid.New(),
		Email:              fmt.Sprintf("%s@example.com", uuid.New().String()[:8]),
		Password:           "x",
		IsPremium:          premium,
		GenerationsToday:   generationsToday,
		LastGenerationDate: lastDate,
	}
	if err := fx.db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func (fx *generationFixture) reloadUser(t *testing.T, id uuid.UUID) *types.User {
	t.Helper()
	var user types.User
	if err := fx.db.First(&user, "id = ?", id).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	return &user
}

func (fx *generationFixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	if err := fx.db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func authedCtx(userID uuid.UUID) context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: userID})
}

func basicRequest() *GenerationRequest {
	return &GenerationRequest{
		Characteristics: []string{"classic"},
		Gender:          "girl",
	}
}

const twoNameResponse = `[{"name":"Ava","gender":"female","origin":"Latin","meaning":"bird"},{"name":"Mina","gender":"female"}]`

func TestGenerateAnonymous(t *testing.T) {
	fx := newGenerationFixture(t)
	fx.oracle.response = twoNameResponse

	names, err := fx.service.Generate(context.Background(), basicRequest())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("got %d names, want 2", len(names))
	}
	if fx.oracle.calls != 1 {
		t.Fatalf("oracle calls = %d, want 1", fx.oracle.calls)
	}

	// Anonymous callers leave no trace in the store.
	if n := fx.count(t, &types.Name{}); n != 0 {
		t.Fatalf("name rows = %d, want 0", n)
	}
	if n := fx.count(t, &types.SeenName{}); n != 0 {
		t.Fatalf("seen rows = %d, want 0", n)
	}
}

func TestGenerateQuotaLifecycle(t *testing.T) {
	fx := newGenerationFixture(t)
	fx.oracle.response = twoNameResponse

	today := time.Now()
	user := fx.createUser(t, false, quota.DailyFreeLimit-1, &today)

	// One below the cap: admitted, counter moves to the cap.
	if _, err := fx.service.Generate(authedCtx(user.ID), basicRequest()); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got := fx.reloadUser(t, user.ID).GenerationsToday; got != quota.DailyFreeLimit {
		t.Fatalf("generations_today = %d, want %d", got, quota.DailyFreeLimit)
	}

	// Same day, at the cap: rejected before the oracle, counter untouched.
	callsBefore := fx.oracle.calls
	_, err := fx.service.Generate(authedCtx(user.ID), basicRequest())
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("err = %v, want ErrQuotaExceeded", err)
	}
	if fx.oracle.calls != callsBefore {
		t.Fatalf("oracle called on rejected attempt")
	}
	if got := fx.reloadUser(t, user.ID).GenerationsToday; got != quota.DailyFreeLimit {
		t.Fatalf("generations_today = %d after rejection, want %d", got, quota.DailyFreeLimit)
	}
}

func TestGenerateQuotaRollover(t *testing.T) {
	fx := newGenerationFixture(t)
	fx.oracle.response = twoNameResponse

	yesterday := time.Now().AddDate(0, 0, -1)
	user := fx.createUser(t, false, 9, &yesterday)

	if _, err := fx.service.Generate(authedCtx(user.ID), basicRequest()); err != nil {
		t.Fatalf("Generate after stale date: %v", err)
	}

	reloaded := fx.reloadUser(t, user.ID)
	if reloaded.GenerationsToday != 1 {
		t.Fatalf("generations_today = %d, want 1 after rollover", reloaded.GenerationsToday)
	}
	if reloaded.LastGenerationDate == nil || !quota.SameDay(*reloaded.LastGenerationDate, time.Now()) {
		t.Fatalf("last_generation_date not advanced: %v", reloaded.LastGenerationDate)
	}
}

func TestGeneratePremiumUnbounded(t *testing.T) {
	fx := newGenerationFixture(t)
	fx.oracle.response = twoNameResponse

	today := time.Now()
	user := fx.createUser(t, true, 40, &today)

	if _, err := fx.service.Generate(authedCtx(user.ID), basicRequest()); err != nil {
		t.Fatalf("premium Generate: %v", err)
	}
	if got := fx.reloadUser(t, user.ID).GenerationsToday; got != 41 {
		t.Fatalf("generations_today = %d, want 41", got)
	}
}

func TestGenerateExclusionsReachOracle(t *testing.T) {
	fx := newGenerationFixture(t)
	fx.oracle.response = twoNameResponse

	user := fx.createUser(t, false, 0, nil)

	// First generation seeds the seen ledger with Ava and Mina.
	if _, err := fx.service.Generate(authedCtx(user.ID), basicRequest()); err != nil {
		t.Fatalf("first Generate: %v", err)
	}

	// The next request must carry them, plus the session's own exclusions.
	req := basicRequest()
	req.GeneratedNames = []string{"Luna"}
	if _, err := fx.service.Generate(authedCtx(user.ID), req); err != nil {
		t.Fatalf("second Generate: %v", err)
	}

	for _, want := range []string{"Ava", "Mina", "Luna"} {
		if !strings.Contains(fx.oracle.lastPrompt, want) {
			t.Fatalf("prompt missing excluded name %q:\n%s", want, fx.oracle.lastPrompt)
		}
	}
}

func TestGeneratePersistenceIdempotent(t *testing.T) {
	fx := newGenerationFixture(t)
	fx.oracle.response = twoNameResponse

	user := fx.createUser(t, false, 0, nil)

	// The same names across two sessions converge to one canonical row and
	// one seen row per (user, name) pair.
	for i := 0; i < 2; i++ {
		if _, err := fx.service.Generate(authedCtx(user.ID), basicRequest()); err != nil {
			t.Fatalf("Generate %d: %v", i, err)
		}
	}

	if n := fx.count(t, &types.Name{}); n != 2 {
		t.Fatalf("name rows = %d, want 2", n)
	}
	if n := fx.count(t, &types.SeenName{}); n != 2 {
		t.Fatalf("seen rows = %d, want 2", n)
	}
	if got := fx.reloadUser(t, user.ID).GenerationsToday; got != 2 {
		t.Fatalf("generations_today = %d, want 2", got)
	}
}

func TestGenerateSharesCanonicalAcrossUsers(t *testing.T) {
	fx := newGenerationFixture(t)
	fx.oracle.response = twoNameResponse

	a := fx.createUser(t, false, 0, nil)
	b := fx.createUser(t, false, 0, nil)

	for _, u := range []*types.User{a, b} {
		if _, err := fx.service.Generate(authedCtx(u.ID), basicRequest()); err != nil {
			t.Fatalf("Generate: %v", err)
		}
	}

	if n := fx.count(t, &types.Name{}); n != 2 {
		t.Fatalf("name rows = %d, want 2 shared rows", n)
	}
	if n := fx.count(t, &types.SeenName{}); n != 4 {
		t.Fatalf("seen rows = %d, want 4 (2 per user)", n)
	}
}

func TestGenerateMalformedResponse(t *testing.T) {
	fx := newGenerationFixture(t)
	fx.oracle.response = "I'm sorry, I cannot help with that."

	user := fx.createUser(t, false, 0, nil)

	_, err := fx.service.Generate(authedCtx(user.ID), basicRequest())
	if !errors.Is(err, ErrMalformedOracleResponse) {
		t.Fatalf("err = %v, want ErrMalformedOracleResponse", err)
	}

	// Full parse failure aborts with no mutation at all.
	if n := fx.count(t, &types.Name{}); n != 0 {
		t.Fatalf("name rows = %d, want 0", n)
	}
	if got := fx.reloadUser(t, user.ID).GenerationsToday; got != 0 {
		t.Fatalf("generations_today = %d, want 0", got)
	}
}

func TestGenerateOracleUnavailable(t *testing.T) {
	fx := newGenerationFixture(t)
	fx.oracle.err = ErrOracleUnavailable

	user := fx.createUser(t, false, 0, nil)

	_, err := fx.service.Generate(authedCtx(user.ID), basicRequest())
	if !errors.Is(err, ErrOracleUnavailable) {
		t.Fatalf("err = %v, want ErrOracleUnavailable", err)
	}
	if got := fx.reloadUser(t, user.ID).GenerationsToday; got != 0 {
		t.Fatalf("generations_today = %d, want 0", got)
	}
}

func TestGenerateSurvivesCallerCancel(t *testing.T) {
	fx := newGenerationFixture(t)
	fx.oracle.response = twoNameResponse

	user := fx.createUser(t, false, 0, nil)

	// Cancel as soon as the oracle has answered; persistence and the quota
	// increment still land.
	ctx, cancel := context.WithCancel(authedCtx(user.ID))
	cancelOnCall := &cancelingOracle{inner: fx.oracle, cancel: cancel}
	service := NewGenerationService(fx.db, mustLogger(t), fx.userRepo, fx.nameRepo, fx.seenRepo, cancelOnCall)

	names, err := service.Generate(ctx, basicRequest())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("got %d names, want 2", len(names))
	}
	if n := fx.count(t, &types.SeenName{}); n != 2 {
		t.Fatalf("seen rows = %d, want 2 despite cancelation", n)
	}
	if got := fx.reloadUser(t, user.ID).GenerationsToday; got != 1 {
		t.Fatalf("generations_today = %d, want 1 despite cancelation", got)
	}
}

type cancelingOracle struct {
	inner  *fakeOracle
	cancel context.CancelFunc
}

func (c *cancelingOracle) ChatComplete(ctx context.Context, system, user string, opts ChatOptions) (string, error) {
	out, err := c.inner.ChatComplete(ctx, system, user, opts)
	c.cancel()
	return out, err
}

func mustLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger init: %v", err)
	}
	return log
}

func TestAssembleExclusions(t *testing.T) {
	cases := []struct {
		name    string
		seen    []string
		session []string
		want    []string
	}{
		{
			name: "both_empty",
			want: []string{},
		},
		{
			name:    "union_no_precedence",
			seen:    []string{"Ava"},
			session: []string{"Luna"},
			want:    []string{"Ava", "Luna"},
		},
		{
			name:    "case_insensitive_dedup",
			seen:    []string{"Ava"},
			session: []string{"  AVA ", "Luna"},
			want:    []string{"Ava", "Luna"},
		},
		{
			name:    "blank_entries_ignored",
			seen:    []string{"", "  "},
			session: []string{"Kai"},
			want:    []string{"Kai"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := assembleExclusions(tc.seen, tc.session)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("assembleExclusions(%v, %v) = %v, want %v", tc.seen, tc.session, got, tc.want)
			}
		})
	}
}
