package services

import (
  "errors"
)

// Generation pipeline failure classes. Handlers map these onto HTTP codes;
// everything else is an internal error.
var (
  // ErrQuotaExceeded means a non-premium user hit the daily cap. Retrying
  // before the next calendar day cannot succeed.
  ErrQuotaExceeded = errors.New("daily generation limit reached")

  // ErrOracleUnavailable is a transient upstream failure (timeout, 429,
  // 5xx). The pipeline never retries on its own; the user re-submits.
  ErrOracleUnavailable = errors.New("name generation service unavailable")

  // ErrMalformedOracleResponse means the model answered but no JSON array
  // could be recovered from the text. Re-asking often succeeds.
  ErrMalformedOracleResponse = errors.New("could not parse generated names")

  ErrInvalidCredentials = errors.New("invalid email or password")
  ErrEmailTaken         = errors.New("email already registered")
)
