package models

import (
	"time"

	"gorm.io/datatypes"
)

type OrderItem struct {
	ID      uint  `gorm:"primaryKey" json:"id"`
	OrderID uint  `gorm:"not null;index" json:"order_id"`
	Order   Order `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	// ProductName is a snapshot taken at order time, not a live reference.
	ProductName     string         `gorm:"type:varchar(100);not null" json:"product_name"`
	UnitPrice       float64        `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Notes           string         `gorm:"type:text" json:"notes"`
	SelectedOptions datatypes.JSON `json:"selected_options,omitempty"`
	CreatedAt       time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null" json:"updated_at"`
}
