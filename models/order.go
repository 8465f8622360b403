package models

import (
	"time"

	"gorm.io/datatypes"
)

type Order struct {
	ID      uint        `gorm:"primaryKey" json:"id"`
	TableID uint        `gorm:"not null;index" json:"table_id"`
	Table   Table       `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"table"`
	Status  OrderStatus `gorm:"type:varchar(20);not null;default:'NEW'" json:"status"`
	// TotalPrice is always recomputed from the items, never taken from a client.
	TotalPrice      float64        `gorm:"type:decimal(10,2);not null;default:0.00" json:"total_price"`
	ProposedChanges datatypes.JSON `json:"proposed_changes,omitempty"`
	PreparingAt     *time.Time     `json:"preparing_at,omitempty"`
	ReadyAt         *time.Time     `json:"ready_at,omitempty"`
	DeliveredAt     *time.Time     `json:"delivered_at,omitempty"`
	PaidAt          *time.Time     `json:"paid_at,omitempty"`
	CreatedAt       time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null" json:"updated_at"`
	Items           []OrderItem    `gorm:"foreignKey:OrderID" json:"items"`
}

// RecomputeTotal sums the current items. Quantity is fixed at one per row;
// repeated products appear as multiple rows.
func (o *Order) RecomputeTotal() {
	var total float64
	for _, item := range o.Items {
		total += item.UnitPrice
	}
	o.TotalPrice = total
}
