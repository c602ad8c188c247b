package types

import (
  "time"
  "github.com/google/uuid"
)

type User struct {
  ID                  uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
  Email               string          `gorm:"uniqueIndex;not null;column:email" json:"email"`
  Password            string          `gorm:"not null;column:password" json:"-"`
  IsPremium           bool            `gorm:"not null;default:false;column:is_premium" json:"is_premium"`
  GenerationsToday    int             `gorm:"not null;default:0;column:generations_today" json:"generations_today"`
  LastGenerationDate  *time.Time      `gorm:"column:last_generation_date" json:"last_generation_date"`
  CreatedAt           time.Time       `gorm:"not null" json:"created_at"`
  UpdatedAt           time.Time       `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string {
  return "user"
}
