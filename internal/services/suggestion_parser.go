package services

import (
  "encoding/json"
  "strings"

  "github.com/lilybloom/babynames-backend/internal/normalization"
  "github.com/lilybloom/babynames-backend/internal/types"
)

// NameSuggestion is one oracle-proposed name after validation. The response
// to the caller is built from these, not from what was persisted.
type NameSuggestion struct {
  Name            string   `json:"name"`
  Gender          string   `json:"gender"`
  Origin          string   `json:"origin,omitempty"`
  Meaning         string   `json:"meaning,omitempty"`
  Characteristics []string `json:"characteristics,omitempty"`
}

// ParseSuggestions recovers a suggestion list from the oracle's free text.
// Stage one is a strict parse of the whole response; stage two parses the
// first-to-last bracketed span, since models often wrap the array in prose.
// Elements without a non-empty name and a valid gender are dropped; an empty
// list after filtering is not an error.
func ParseSuggestions(raw string) ([]NameSuggestion, error) {
  var parsed []NameSuggestion

  if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
    span, ok := bracketSpan(raw)
    if !ok {
      return nil, ErrMalformedOracleResponse
    }
    parsed = nil
    if err := json.Unmarshal([]byte(span), &parsed); err != nil {
      return nil, ErrMalformedOracleResponse
    }
  }

  valid := make([]NameSuggestion, 0, len(parsed))
  for _, s := range parsed {
    s.Name = strings.TrimSpace(s.Name)
    s.Gender = normalization.ParseInputString(s.Gender)
    if s.Name == "" || !types.ValidGender(s.Gender) {
      continue
    }
    valid = append(valid, s)
  }
  return valid, nil
}

func bracketSpan(raw string) (string, bool) {
  start := strings.Index(raw, "[")
  end := strings.LastIndex(raw, "]")
  if start == -1 || end == -1 || end <= start {
    return "", false
  }
  return raw[start : end+1], true
}
