package services

import (
  "context"
  "encoding/json"
  "fmt"
  "sort"
  "time"

  "github.com/google/uuid"
  "golang.org/x/sync/errgroup"
  "gorm.io/datatypes"
  "gorm.io/gorm"

  "github.com/lilybloom/babynames-backend/internal/logger"
  "github.com/lilybloom/babynames-backend/internal/normalization"
  "github.com/lilybloom/babynames-backend/internal/quota"
  "github.com/lilybloom/babynames-backend/internal/repos"
  "github.com/lilybloom/babynames-backend/internal/requestdata"
  "github.com/lilybloom/babynames-backend/internal/types"
)

const (
  generationTemperature   = 0.8
  generationMaxTokens     = 600
  defaultPopularityScore  = 50
  persistConcurrency      = 4
)

// GenerationRequest is the caller's characteristic selection. GeneratedNames
// are the current UI session's exclusions, supplied by the caller and not
// server-verified.
type GenerationRequest struct {
  Characteristics []string          `json:"characteristics" binding:"required,min=1,max=5"`
  Gender          string            `json:"gender" binding:"required,oneof=boy girl unisex any"`
  SpecificOptions map[string]string `json:"specificOptions"`
  GeneratedNames  []string          `json:"generatedNames"`
}

type GenerationService interface {
  Generate(ctx context.Context, req *GenerationRequest) ([]NameSuggestion, error)
}

type generationService struct {
  db           *gorm.DB
  log          *logger.Logger
  userRepo     repos.UserRepo
  nameRepo     repos.NameRepo
  seenNameRepo repos.SeenNameRepo
  oracle       OpenAIClient
}

func NewGenerationService(
  db *gorm.DB,
  log *logger.Logger,
  userRepo repos.UserRepo,
  nameRepo repos.NameRepo,
  seenNameRepo repos.SeenNameRepo,
  oracle OpenAIClient,
) GenerationService {
  serviceLog := log.With("service", "GenerationService")
  return &generationService{
    db:           db,
    log:          serviceLog,
    userRepo:     userRepo,
    nameRepo:     nameRepo,
    seenNameRepo: seenNameRepo,
    oracle:       oracle,
  }
}

// Generate runs the whole pipeline: admission, exclusion assembly, oracle
// call, validation, best-effort persistence, quota increment. Anonymous
// callers skip every step that touches a profile.
func (gs *generationService) Generate(ctx context.Context, req *GenerationRequest) ([]NameSuggestion, error) {
  now := time.Now()

  var user *types.User
  var state quota.State
  if rd := requestdata.GetRequestData(ctx); rd != nil && rd.UserID != uuid.Nil {
    users, err := gs.userRepo.GetByIDs(ctx, nil, []uuid.UUID{rd.UserID})
    if err != nil {
      return nil, fmt.Errorf("failed to load user profile: %w", err)
    }
    if len(users) == 0 {
      return nil, fmt.Errorf("unknown user %s", rd.UserID)
    }
    user = users[0]

    state = quota.State{Date: user.LastGenerationDate, Count: user.GenerationsToday}.Rollover(now)
    if !state.Allow(user.IsPremium) {
      return nil, ErrQuotaExceeded
    }
  }

  var seenNames []string
  if user != nil {
    var err error
    seenNames, err = gs.seenNameRepo.ListNameStringsByUserID(ctx, nil, user.ID)
    if err != nil {
      return nil, fmt.Errorf("failed to load seen names: %w", err)
    }
  }

  excluded := assembleExclusions(seenNames, req.GeneratedNames)
  prompt := BuildGenerationPrompt(req, excluded)

  raw, err := gs.oracle.ChatComplete(ctx, generationSystemPrompt, prompt, ChatOptions{
    Temperature: generationTemperature,
    MaxTokens:   generationMaxTokens,
  })
  if err != nil {
    return nil, err
  }

  suggestions, err := ParseSuggestions(raw)
  if err != nil {
    return nil, err
  }

  if user != nil {
    // The oracle has answered; a client disconnect from here on must not
    // strand a half-written batch or lose the quota increment.
    pctx := context.WithoutCancel(ctx)
    gs.persistSuggestions(pctx, user.ID, suggestions)

    next := state.Next(now)
    if err := gs.userRepo.UpdateGenerationQuota(pctx, nil, user.ID, next.Count, *next.Date); err != nil {
      gs.log.Error("Failed to record generation quota", "user_id", user.ID, "error", err)
    }
  }

  return suggestions, nil
}

// assembleExclusions unions the seen-name history with the session's own
// exclusions. No precedence between the sources; identity is the normalized
// form, display casing from whichever source listed it first.
func assembleExclusions(seenNames, sessionExcluded []string) []string {
  byNorm := map[string]string{}
  for _, n := range append(append([]string{}, seenNames...), sessionExcluded...) {
    norm := normalization.ParseInputString(n)
    if norm == "" {
      continue
    }
    if _, ok := byNorm[norm]; !ok {
      byNorm[norm] = n
    }
  }

  out := make([]string, 0, len(byNorm))
  for _, display := range byNorm {
    out = append(out, display)
  }
  sort.Strings(out)
  return out
}

// persistSuggestions fans the batch out; entries are independent, so one
// failing or slow item never blocks or aborts the others. Failures degrade
// to a log line, never to a request error.
func (gs *generationService) persistSuggestions(ctx context.Context, userID uuid.UUID, suggestions []NameSuggestion) {
  g := new(errgroup.Group)
  g.SetLimit(persistConcurrency)

  for _, s := range suggestions {
    g.Go(func() error {
      if err := gs.persistOne(ctx, userID, s); err != nil {
        gs.log.Warn("Suggestion persistence degraded", "user_id", userID, "name", s.Name, "error", err)
      }
      return nil
    })
  }
  _ = g.Wait()
}

func (gs *generationService) persistOne(ctx context.Context, userID uuid.UUID, s NameSuggestion) error {
  canonical, err := ensureCanonicalName(ctx, gs.nameRepo, s)
  if err != nil {
    return err
  }
  return gs.seenNameRepo.CreateIgnoreDuplicates(ctx, nil, []*types.SeenName{{
    ID:     uuid.New(),
    UserID: userID,
    NameID: canonical.ID,
    SeenAt: time.Now(),
  }})
}

// ensureCanonicalName resolves the single stored row for a name string,
// lazily creating it. Lookup-then-insert is racy, so the insert tolerates
// duplicates and the surviving row is re-fetched either way. Shared by the
// pipeline and the favorites save path.
func ensureCanonicalName(ctx context.Context, nameRepo repos.NameRepo, s NameSuggestion) (*types.Name, error) {
  norm := normalization.ParseInputString(s.Name)

  existing, err := nameRepo.GetByNormalizedNames(ctx, nil, []string{norm})
  if err != nil {
    return nil, err
  }
  if len(existing) > 0 {
    return existing[0], nil
  }

  record := &types.Name{
    ID:              uuid.New(),
    Name:            s.Name,
    NormalizedName:  norm,
    Gender:          s.Gender,
    Origin:          s.Origin,
    Meaning:         s.Meaning,
    PopularityScore: defaultPopularityScore,
  }
  if len(s.Characteristics) > 0 {
    chars, mErr := json.Marshal(s.Characteristics)
    if mErr != nil {
      return nil, mErr
    }
    record.Characteristics = datatypes.JSON(chars)
  }

  if err := nameRepo.CreateIgnoreDuplicates(ctx, nil, []*types.Name{record}); err != nil {
    if !repos.IsDuplicateKey(err) {
      return nil, err
    }
  }

  // The conflict clause may have skipped our row in favor of a concurrent
  // insert; the refetch resolves whichever row survived.
  existing, err = nameRepo.GetByNormalizedNames(ctx, nil, []string{norm})
  if err != nil {
    return nil, err
  }
  if len(existing) == 0 {
    return nil, fmt.Errorf("canonical name %q missing after insert", s.Name)
  }
  return existing[0], nil
}
