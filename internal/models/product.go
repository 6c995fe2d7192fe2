package models

import "time"

// Product represents a single inventory item.
type Product struct {
	ID        string    `json:"id" form:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name      string    `json:"name" form:"name" validate:"required,max=100"`
	Category  string    `json:"category" form:"category" validate:"omitempty,max=100"`
	Price     float64   `json:"price" form:"price" validate:"gte=0"`
	Quantity  int       `json:"quantity" form:"quantity" validate:"gte=0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for Product.
func (Product) TableName() string {
	return "products"
}
