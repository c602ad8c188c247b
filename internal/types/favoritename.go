package types

import (
  "time"
  "github.com/google/uuid"
)

type FavoriteName struct {
  ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
  UserID        uuid.UUID       `gorm:"not null;uniqueIndex:ux_favorite_user_name,priority:1" json:"user_id"`
  NameID        uuid.UUID       `gorm:"not null;uniqueIndex:ux_favorite_user_name,priority:2" json:"name_id"`
  Name          *Name           `gorm:"constraint:OnDelete:CASCADE;foreignKey:NameID;references:ID" json:"name,omitempty"`
  CreatedAt     time.Time       `gorm:"not null" json:"created_at"`
  UpdatedAt     time.Time       `gorm:"not null" json:"updated_at"`
}

func (FavoriteName) TableName() string {
  return "favorite_name"
}
