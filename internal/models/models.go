package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/ids"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

type PaymentMethod string

const (
	PaymentCOD  PaymentMethod = "COD"
	PaymentCard PaymentMethod = "CARD"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

type Product struct {
	ID            string         `gorm:"type:char(24);primaryKey"          json:"id"`
	Name          string         `gorm:"not null"                          json:"name"`
	Description   string         `                                         json:"description"`
	Price         float64        `gorm:"not null;check:price >= 0"         json:"price"`
	OriginalPrice *float64       `                                         json:"originalPrice,omitempty"`
	Category      string         `gorm:"index"                             json:"category"`
	Section       string         `gorm:"index"                             json:"section"`
	IsActive      bool           `gorm:"not null"                          json:"isActive"`
	Stock         []ProductStock `gorm:"foreignKey:ProductID"              json:"-"`
	Images        []ProductImage `gorm:"foreignKey:ProductID"              json:"images"`
	CreatedAt     time.Time      `                                         json:"createdAt"`
	UpdatedAt     time.Time      `                                         json:"updatedAt"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = ids.New()
	}
	return nil
}

func (p *Product) StockBySize() map[string]int {
	out := make(map[string]int, len(p.Stock))
	for _, s := range p.Stock {
		out[s.Size] = s.Available
	}
	return out
}

// PrimaryImage returns the image flagged primary, else the first one.
func (p *Product) PrimaryImage() string {
	for _, img := range p.Images {
		if img.IsPrimary {
			return img.URL
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0].URL
	}
	return ""
}

type ProductStock struct {
	ProductID string `gorm:"type:char(24);primaryKey"  json:"-"`
	Size      string `gorm:"primaryKey"                json:"size"`
	Available int    `gorm:"not null;check:available >= 0" json:"available"`
}

type ProductImage struct {
	ID        uint   `gorm:"primaryKey"              json:"-"`
	ProductID string `gorm:"type:char(24);index"     json:"-"`
	URL       string `gorm:"not null"                json:"url"`
	IsPrimary bool   `gorm:"not null;default:false"  json:"isPrimary"`
}

type User struct {
	ID           string    `gorm:"type:char(24);primaryKey"  json:"id"`
	Name         string    `                                 json:"name"`
	Email        string    `gorm:"uniqueIndex;not null"      json:"email"`
	PasswordHash string    `gorm:"not null"                  json:"-"`
	Role         string    `gorm:"not null;default:'user'"   json:"role"`
	IsActive     bool      `gorm:"not null"                  json:"isActive"`
	TotalOrders  int       `gorm:"not null;default:0"        json:"totalOrders"`
	TotalSpent   float64   `gorm:"not null;default:0"        json:"totalSpent"`
	CreatedAt    time.Time `                                 json:"createdAt"`
	UpdatedAt    time.Time `                                 json:"updatedAt"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	return nil
}

type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `gorm:"index" json:"email"`
	Phone string `json:"phone"`
}

type ShippingAddress struct {
	FullName string `json:"fullName"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zipCode"`
	Country  string `json:"country,omitempty"`
	Phone    string `json:"phone"`
}

type Order struct {
	ID              string               `gorm:"type:char(24);primaryKey"                       json:"id"`
	OrderNumber     string               `gorm:"uniqueIndex;not null"                           json:"orderNumber"`
	UserID          *string              `gorm:"type:char(24);index"                            json:"userId,omitempty"`
	CustomerInfo    CustomerInfo         `gorm:"embedded;embeddedPrefix:customer_"              json:"customerInfo"`
	Items           []OrderItem          `gorm:"foreignKey:OrderID"                             json:"items"`
	ShippingAddress ShippingAddress      `gorm:"embedded;embeddedPrefix:ship_"                  json:"shippingAddress"`
	PaymentMethod   PaymentMethod        `gorm:"type:varchar(8);not null"                       json:"paymentMethod"`
	PaymentStatus   PaymentStatus        `gorm:"type:varchar(16);not null;default:'pending'"    json:"paymentStatus"`
	Subtotal        float64              `gorm:"not null"                                       json:"subtotal"`
	Shipping        float64              `gorm:"not null;default:0"                             json:"shipping"`
	Tax             float64              `gorm:"not null;default:0"                             json:"tax"`
	Discount        float64              `gorm:"not null;default:0"                             json:"discount"`
	Total           float64              `gorm:"not null"                                       json:"total"`
	Status          OrderStatus          `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	StatusHistory   []OrderStatusEntry   `gorm:"foreignKey:OrderID"                             json:"statusHistory"`
	Notes           string               `                                                      json:"notes,omitempty"`
	TrackingNumber  string               `                                                      json:"trackingNumber,omitempty"`
	CreatedAt       time.Time            `gorm:"index"                                          json:"createdAt"`
	UpdatedAt       time.Time            `                                                      json:"updatedAt"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == "" {
		o.ID = ids.New()
	}
	return nil
}

func (o *Order) TotalItems() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

type OrderItem struct {
	ID        uint    `gorm:"primaryKey"                    json:"-"`
	OrderID   string  `gorm:"type:char(24);index;not null"  json:"-"`
	Position  int     `gorm:"not null"                      json:"-"`
	ProductID string  `gorm:"type:char(24);index;not null"  json:"product"`
	Name      string  `gorm:"not null"                      json:"name"`
	Price     float64 `gorm:"not null;check:price >= 0"     json:"price"`
	Quantity  int     `gorm:"not null;check:quantity > 0"   json:"quantity"`
	Size      string  `gorm:"not null"                      json:"size"`
	Color     string  `gorm:"not null"                      json:"color"`
	Image     string  `                                     json:"image,omitempty"`
}

type OrderStatusEntry struct {
	ID        uint        `gorm:"primaryKey"                    json:"-"`
	OrderID   string      `gorm:"type:char(24);index;not null"  json:"-"`
	Status    OrderStatus `gorm:"type:varchar(16);not null"     json:"status"`
	Note      string      `                                     json:"note"`
	Timestamp time.Time   `gorm:"not null"                      json:"timestamp"`
}

func (e *OrderStatusEntry) BeforeCreate(*gorm.DB) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	return nil
}

// OrderSequence holds the last order number issued for a calendar day.
type OrderSequence struct {
	Day   string `gorm:"type:char(8);primaryKey"`
	Value int64  `gorm:"not null;default:0"`
}

type CartItem struct {
	ID        uint      `gorm:"primaryKey"                                                  json:"id"`
	UserID    string    `gorm:"type:char(24);not null;uniqueIndex:ux_cart_line"              json:"-"`
	ProductID string    `gorm:"type:char(24);not null;uniqueIndex:ux_cart_line"              json:"product"`
	Size      string    `gorm:"not null;uniqueIndex:ux_cart_line"                            json:"size"`
	Color     string    `gorm:"not null;uniqueIndex:ux_cart_line"                            json:"color"`
	Name      string    `gorm:"not null"                                                     json:"name"`
	Price     float64   `gorm:"not null"                                                     json:"price"`
	Quantity  int       `gorm:"not null;default:1;check:quantity > 0"                        json:"quantity"`
	Image     string    `                                                                    json:"image,omitempty"`
	CreatedAt time.Time `                                                                    json:"createdAt"`
	UpdatedAt time.Time `                                                                    json:"updatedAt"`
}

// All lists every table the service migrates.
func All() []any {
	return []any{
		&Product{}, &ProductStock{}, &ProductImage{},
		&User{},
		&Order{}, &OrderItem{}, &OrderStatusEntry{}, &OrderSequence{},
		&CartItem{},
	}
}
