package repos

import (
  "errors"
  "strings"

  "github.com/jackc/pgx/v5/pgconn"
  "gorm.io/gorm"
)

// IsDuplicateKey reports whether err is a unique-constraint violation.
// Postgres surfaces pgconn.PgError 23505, gorm's error translation yields
// ErrDuplicatedKey, and the sqlite driver used in tests reports a plain
// "UNIQUE constraint failed" message.
func IsDuplicateKey(err error) bool {
  if err == nil {
    return false
  }
  if errors.Is(err, gorm.ErrDuplicatedKey) {
    return true
  }
  var pgErr *pgconn.PgError
  if errors.As(err, &pgErr) {
    return pgErr.Code == "23505"
  }
  return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
