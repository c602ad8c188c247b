package types

import (
  "time"
  "github.com/google/uuid"
)

// SeenName marks that a user has already been shown a canonical name.
// Its existence is the whole contract; rows are never updated or deleted.
type SeenName struct {
  ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
  UserID        uuid.UUID       `gorm:"not null;uniqueIndex:ux_seen_user_name,priority:1" json:"user_id"`
  NameID        uuid.UUID       `gorm:"not null;uniqueIndex:ux_seen_user_name,priority:2" json:"name_id"`
  Name          *Name           `gorm:"constraint:OnDelete:CASCADE;foreignKey:NameID;references:ID" json:"name,omitempty"`
  SeenAt        time.Time       `gorm:"not null;column:seen_at" json:"seen_at"`
}

func (SeenName) TableName() string {
  return "seen_name"
}
