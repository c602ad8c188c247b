package types

import (
  "time"
  "github.com/google/uuid"
  "gorm.io/datatypes"
)

const (
  GenderMale    = "male"
  GenderFemale  = "female"
  GenderUnisex  = "unisex"
)

func ValidGender(g string) bool {
  return g == GenderMale || g == GenderFemale || g == GenderUnisex
}

// Name is the canonical record for a name string, shared across all users.
// NormalizedName (trim + lowercase) is the identity everywhere; Name keeps
// the display casing from whichever request created the row first.
type Name struct {
  ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
  Name              string          `gorm:"not null;column:name" json:"name"`
  NormalizedName    string          `gorm:"uniqueIndex;not null;column:normalized_name" json:"-"`
  Gender            string          `gorm:"not null;column:gender" json:"gender"`
  Origin            string          `gorm:"column:origin" json:"origin,omitempty"`
  Meaning           string          `gorm:"column:meaning" json:"meaning,omitempty"`
  Characteristics   datatypes.JSON  `gorm:"column:characteristics" json:"characteristics,omitempty"`
  PopularityScore   int             `gorm:"not null;default:0;column:popularity_score" json:"popularity_score"`
  CreatedAt         time.Time       `gorm:"not null" json:"created_at"`
  UpdatedAt         time.Time       `gorm:"not null" json:"updated_at"`
}

func (Name) TableName() string {
  return "name"
}
