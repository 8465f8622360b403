package models

import (
	"time"

	"gorm.io/datatypes"
)

// Product categories
const (
	CategoryJuice    = "JUICE"
	CategorySandwich = "SANDWICH"
)

type Product struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"type:varchar(100);not null;index" json:"name"`
	Category     string         `gorm:"type:varchar(20);not null" json:"category"`
	BasePrice    float64        `gorm:"type:decimal(10,2);not null" json:"base_price"`
	Description  string         `gorm:"type:text" json:"description"`
	OptionSchema datatypes.JSON `json:"option_schema,omitempty"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
}
