package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringList stores a slice of strings as a JSON text column.
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported type %T for StringList", value)
	}
}

type Product struct {
	ID                uint       `gorm:"primarykey" json:"id"`
	Name              string     `gorm:"not null;index" json:"name"`
	Description       string     `gorm:"type:text" json:"description"`
	Brand             string     `gorm:"type:varchar(100);index" json:"brand"`
	SKU               string     `gorm:"type:varchar(64);uniqueIndex" json:"sku"`
	Price             Money      `gorm:"type:decimal(20,2);not null" json:"price"`
	ImageURL          string     `json:"image_url"`
	ImageURLs         StringList `gorm:"type:text" json:"image_urls"`
	CategoryID        *uint      `gorm:"index" json:"category_id,omitempty"`
	Category          *Category  `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Quantity          int        `gorm:"default:0" json:"quantity"`
	ReservedQuantity  int        `gorm:"default:0" json:"reserved_quantity"`
	LowStockThreshold int        `gorm:"default:5" json:"low_stock_threshold"`
	Rating            float64    `gorm:"default:0" json:"rating"`
	Active            bool       `gorm:"default:true" json:"active"`
	Deleted           bool       `gorm:"default:false;index" json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	// Relationships
	OrderItems []OrderItem `gorm:"foreignKey:ProductID" json:"-"`
	CartItems  []CartItem  `gorm:"foreignKey:ProductID" json:"-"`
}

func (Product) TableName() string {
	return "products"
}

// AvailableQuantity is the sellable stock, net of reservations.
func (p *Product) AvailableQuantity() int {
	return p.Quantity - p.ReservedQuantity
}

// LowStock reports whether available stock fell to the threshold or below.
func (p *Product) LowStock() bool {
	return p.AvailableQuantity() <= p.LowStockThreshold
}

type Category struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	ParentID    *uint     `gorm:"index" json:"parent_id,omitempty"`
	Parent      *Category `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Category) TableName() string {
	return "categories"
}
