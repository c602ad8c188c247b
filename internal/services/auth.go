package services

import (
  "context"
  "fmt"
  "time"
  "gorm.io/gorm"
  "golang.org/x/crypto/bcrypt"
  "github.com/golang-jwt/jwt/v5"
  "github.com/google/uuid"
  "github.com/lilybloom/babynames-backend/internal/logger"
  "github.com/lilybloom/babynames-backend/internal/normalization"
  "github.com/lilybloom/babynames-backend/internal/repos"
  "github.com/lilybloom/babynames-backend/internal/requestdata"
  "github.com/lilybloom/babynames-backend/internal/types"
)

type AuthService interface {
  RegisterUser(ctx context.Context, email, password string) (*types.User, error)
  LoginUser(ctx context.Context, email, password string) (string, string, error)
  RefreshUser(ctx context.Context, refreshToken string) (string, string, error)
  LogoutUser(ctx context.Context) error
  SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type authService struct {
  db            *gorm.DB
  log           *logger.Logger
  userRepo      repos.UserRepo
  userTokenRepo repos.UserTokenRepo
  jwtSecretKey  string
  accessTTL     time.Duration
  refreshTTL    time.Duration
}

func NewAuthService(
  db *gorm.DB,
  log *logger.Logger,
  userRepo repos.UserRepo,
  userTokenRepo repos.UserTokenRepo,
  jwtSecretKey string,
  accessTTL time.Duration,
  refreshTTL time.Duration,
) AuthService {
  serviceLog := log.With("service", "AuthService")
  return &authService{
    db:            db,
    log:           serviceLog,
    userRepo:      userRepo,
    userTokenRepo: userTokenRepo,
    jwtSecretKey:  jwtSecretKey,
    accessTTL:     accessTTL,
    refreshTTL:    refreshTTL,
  }
}

func (as *authService) RegisterUser(ctx context.Context, email, password string) (*types.User, error) {
  email = normalization.ParseInputString(email)
  if email == "" || len(password) < 8 {
    return nil, fmt.Errorf("email and a password of at least 8 characters are required")
  }

  exists, err := as.userRepo.EmailExists(ctx, nil, email)
  if err != nil {
    return nil, fmt.Errorf("failed to check email: %w", err)
  }
  if exists {
    return nil, ErrEmailTaken
  }

  hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
  if err != nil {
    return nil, fmt.Errorf("failed to hash password: %w", err)
  }

  user := &types.User{
    ID:       uuid.New(),
    Email:    email,
    Password: string(hash),
  }
  if _, err := as.userRepo.Create(ctx, nil, []*types.User{user}); err != nil {
    if repos.IsDuplicateKey(err) {
      return nil, ErrEmailTaken
    }
    return nil, fmt.Errorf("failed to create user: %w", err)
  }
  return user, nil
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (string, string, error) {
  email = normalization.ParseInputString(email)

  users, err := as.userRepo.GetByEmails(ctx, nil, []string{email})
  if err != nil {
    return "", "", fmt.Errorf("failed to look up user: %w", err)
  }
  if len(users) == 0 {
    return "", "", ErrInvalidCredentials
  }
  user := users[0]

  if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
    return "", "", ErrInvalidCredentials
  }

  return as.issueTokens(ctx, user)
}

func (as *authService) RefreshUser(ctx context.Context, refreshToken string) (string, string, error) {
  token, err := as.userTokenRepo.GetByRefreshToken(ctx, nil, refreshToken)
  if err != nil {
    return "", "", ErrInvalidCredentials
  }
  if token.ExpiresAt.Before(time.Now()) {
    return "", "", ErrInvalidCredentials
  }

  users, err := as.userRepo.GetByIDs(ctx, nil, []uuid.UUID{token.UserID})
  if err != nil || len(users) == 0 {
    return "", "", ErrInvalidCredentials
  }

  if err := as.userTokenRepo.DeleteByUserIDs(ctx, nil, []uuid.UUID{token.UserID}); err != nil {
    as.log.Warn("Failed to delete rotated token", "user_id", token.UserID, "error", err)
  }
  return as.issueTokens(ctx, users[0])
}

func (as *authService) LogoutUser(ctx context.Context) error {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return fmt.Errorf("no authenticated user in context")
  }
  return as.userTokenRepo.DeleteByUserIDs(ctx, nil, []uuid.UUID{rd.UserID})
}

func (as *authService) issueTokens(ctx context.Context, user *types.User) (string, string, error) {
  accessToken, err := as.generateAccessToken(user)
  if err != nil {
    return "", "", fmt.Errorf("failed to sign access token: %w", err)
  }
  refreshToken := uuid.New().String()

  record := &types.UserToken{
    ID:           uuid.New(),
    UserID:       user.ID,
    AccessToken:  accessToken,
    RefreshToken: refreshToken,
    ExpiresAt:    time.Now().Add(as.refreshTTL),
  }
  if _, err := as.userTokenRepo.Create(ctx, nil, []*types.UserToken{record}); err != nil {
    return "", "", fmt.Errorf("failed to persist token: %w", err)
  }
  return accessToken, refreshToken, nil
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
  now := time.Now()
  claims := jwt.MapClaims{
    "sub": user.ID.String(),
    "iat": now.Unix(),
    "exp": now.Add(as.accessTTL).Unix(),
  }
  token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
  return token.SignedString([]byte(as.jwtSecretKey))
}

// SetContextFromToken verifies a bearer token and installs the resolved
// identity into the request context. Callers that allow anonymous access
// simply skip this on a missing token.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
  parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
    if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
      return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
    }
    return []byte(as.jwtSecretKey), nil
  })
  if err != nil || !parsed.Valid {
    return ctx, fmt.Errorf("invalid token")
  }

  claims, ok := parsed.Claims.(jwt.MapClaims)
  if !ok {
    return ctx, fmt.Errorf("invalid token claims")
  }
  sub, _ := claims["sub"].(string)
  userID, err := uuid.Parse(sub)
  if err != nil {
    return ctx, fmt.Errorf("invalid token subject")
  }

  return requestdata.WithRequestData(ctx, &requestdata.RequestData{
    TokenString: tokenString,
    UserID:      userID,
  }), nil
}
