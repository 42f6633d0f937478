package models

import "time"

// BaseModel carries the bookkeeping columns shared by persisted entities.
type BaseModel struct {
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}
