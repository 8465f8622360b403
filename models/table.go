package models

import "time"

type Table struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	Code            string      `gorm:"type:varchar(10);uniqueIndex;not null" json:"code"`
	IsActive        bool        `gorm:"not null;default:true" json:"is_active"`
	Status          TableStatus `gorm:"type:varchar(20);not null;default:'FREE'" json:"status"`
	SessionToken    *string     `gorm:"type:varchar(64)" json:"-"`
	NeedsAssistance bool        `gorm:"not null;default:false" json:"needs_assistance"`
	CreatedAt       time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time   `gorm:"not null" json:"updated_at"`
}
