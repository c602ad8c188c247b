package services

import (
  "fmt"
  "sort"
  "strings"

  "github.com/lilybloom/babynames-backend/internal/normalization"
)

// SuggestionCount is how many names each generation asks the model for.
const SuggestionCount = 5

const generationSystemPrompt = "You are a baby name consultant. You answer with a JSON array only, " +
  "no prose, no markdown fences. Every element is an object with the keys " +
  "\"name\", \"gender\", \"origin\", \"meaning\" and \"characteristics\"."

// characteristicPhrases maps a specific-option key (normalized) to its
// instruction clause. Adding a characteristic is a row here, not a branch.
var characteristicPhrases = map[string]string{
  "origin":                 "the names MUST be of %s origin",
  "starts with the letter": "the names MUST start with the letter %s",
  "ends with the letter":   "the names MUST end with the letter %s",
  "number of syllables":    "the names MUST have %s syllables",
  "meaning":                "the names MUST carry a meaning related to %s",
  "popularity":             "the names SHOULD be %s in popularity",
}

func genderClause(gender string) string {
  switch normalization.ParseInputString(gender) {
  case "boy":
    return "boy names"
  case "girl":
    return "girl names"
  case "unisex":
    return "unisex names"
  default:
    return "names of any gender"
  }
}

// BuildGenerationPrompt deterministically renders a request into the user
// message for the oracle. Unknown specific-option keys fall back to a
// generic "key: value" clause rather than being dropped.
func BuildGenerationPrompt(req *GenerationRequest, excludedNames []string) string {
  var b strings.Builder

  fmt.Fprintf(&b, "Suggest exactly %d %s.", SuggestionCount, genderClause(req.Gender))
  if len(req.Characteristics) > 0 {
    fmt.Fprintf(&b, " The names should feel %s.", strings.Join(req.Characteristics, ", "))
  }

  for _, key := range sortedOptionKeys(req.SpecificOptions) {
    value := strings.TrimSpace(req.SpecificOptions[key])
    if value == "" {
      continue
    }
    phrase, ok := characteristicPhrases[normalization.ParseInputString(key)]
    if ok {
      fmt.Fprintf(&b, " Additionally, "+phrase+".", value)
    } else {
      fmt.Fprintf(&b, " Additionally, %s: %s.", key, value)
    }
  }

  if len(excludedNames) > 0 {
    fmt.Fprintf(&b, " Do NOT suggest any of the following names: %s.", strings.Join(excludedNames, ", "))
  }

  fmt.Fprintf(&b, " Respond with a JSON array of %d objects, each with the keys "+
    "\"name\", \"gender\" (male, female or unisex), \"origin\", \"meaning\" and "+
    "\"characteristics\" (array of strings).", SuggestionCount)

  return b.String()
}

// Deterministic prompt for identical requests.
func sortedOptionKeys(options map[string]string) []string {
  keys := make([]string, 0, len(options))
  for k := range options {
    keys = append(keys, k)
  }
  sort.Strings(keys)
  return keys
}
