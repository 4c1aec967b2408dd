package model

import (
	"time"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// ValidOrderStatus reports whether s is one of the known status codes.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

type Order struct {
	ID                uint        `gorm:"primarykey" json:"id"`
	UserID            uint        `gorm:"not null;index" json:"user_id"`
	Status            OrderStatus `gorm:"type:varchar(20);default:'PENDING'" json:"status"`
	Subtotal          Money       `gorm:"type:decimal(20,2);not null" json:"subtotal"`
	Tax               Money       `gorm:"type:decimal(20,2);not null" json:"tax"`
	ShippingFee       Money       `gorm:"type:decimal(20,2);not null" json:"shipping_fee"`
	Discount          Money       `gorm:"type:decimal(20,2)" json:"discount"`
	Total             Money       `gorm:"type:decimal(20,2);not null" json:"total"`
	ShippingAddress   string      `gorm:"type:text" json:"shipping_address"`
	BillingAddress    string      `gorm:"type:text" json:"billing_address"`
	TrackingNumber    string      `gorm:"type:varchar(50);index" json:"tracking_number,omitempty"`
	Carrier           string      `gorm:"type:varchar(50)" json:"carrier,omitempty"`
	EstimatedDelivery *time.Time  `json:"estimated_delivery,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`

	User  User        `gorm:"foreignKey:UserID" json:"-"`
	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem is a line of an order. ProductName and UnitPrice are
// snapshots taken when the order was placed.
type OrderItem struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	OrderID     uint      `gorm:"not null;index" json:"order_id"`
	ProductID   uint      `gorm:"not null;index" json:"product_id"`
	ProductName string    `gorm:"not null" json:"product_name"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	UnitPrice   Money     `gorm:"type:decimal(20,2);not null" json:"unit_price"`
	CreatedAt   time.Time `json:"created_at"`

	Order   Order   `gorm:"foreignKey:OrderID" json:"-"`
	Product Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
