package normalization

import (
  "strings"
)

// ParseInputString is the single comparison form used for name matching:
// exclusion sets, canonical-name dedup and lookups all go through it.
func ParseInputString(input string) string {
  normalized := strings.ToLower(strings.TrimSpace(input))
  return normalized
}
