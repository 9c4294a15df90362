package domain

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID       int64         `db:"id" json:"id"`
	Name     string        `db:"name" json:"name"`
	Slug     string        `db:"slug" json:"slug"`
	ParentID sql.NullInt64 `db:"parent_id" json:"-"`
}

// CategoryNode is a top-level category with its direct children, as shown in
// the site navigation.
type CategoryNode struct {
	Category
	Children []Category `json:"children"`
}

type Product struct {
	ID           int64           `db:"id" json:"id"`
	CategoryID   sql.NullInt64   `db:"category_id" json:"-"`
	SellerID     sql.NullString  `db:"seller_id" json:"-"`
	Name         string          `db:"name" json:"name"`
	Description  string          `db:"description" json:"description"`
	Price        decimal.Decimal `db:"price" json:"price"`
	Stock        int             `db:"stock" json:"stock"`
	TrackingCode string          `db:"tracking_code" json:"tracking_code,omitempty"`
	IsFeatured   bool            `db:"is_featured" json:"is_featured"`
	CreatedAt    string          `db:"created_at" json:"created_at"`
	UpdatedAt    string          `db:"updated_at" json:"updated_at"`
}

// Cart is owned by exactly one of UserID or SessionKey.
type Cart struct {
	ID         string         `db:"id" json:"id"`
	UserID     sql.NullString `db:"user_id" json:"-"`
	SessionKey sql.NullString `db:"session_key" json:"-"`
	CreatedAt  string         `db:"created_at" json:"created_at"`
	UpdatedAt  string         `db:"updated_at" json:"updated_at"`
}

func (c Cart) Anonymous() bool { return !c.UserID.Valid }

type CartItem struct {
	ID        int64  `db:"id" json:"id"`
	CartID    string `db:"cart_id" json:"cart_id"`
	ProductID int64  `db:"product_id" json:"product_id"`
	Quantity  int    `db:"quantity" json:"quantity"`
}

// CartLine is a cart item joined with the live product row.
type CartLine struct {
	ItemID       int64           `db:"item_id" json:"id"`
	ProductID    int64           `db:"product_id" json:"product_id"`
	ProductName  string          `db:"product_name" json:"product_name"`
	Quantity     int             `db:"quantity" json:"quantity"`
	Price        decimal.Decimal `db:"price" json:"price"`
	Stock        int             `db:"stock" json:"stock"`
	TrackingCode string          `db:"tracking_code" json:"tracking_code,omitempty"`
}

func (l CartLine) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Order struct {
	ID              string          `db:"id" json:"id"`
	UserID          sql.NullString  `db:"user_id" json:"-"`
	SessionKey      sql.NullString  `db:"session_key" json:"-"`
	FullName        string          `db:"full_name" json:"full_name"`
	ShippingAddress string          `db:"shipping_address" json:"shipping_address"`
	ContactInfo     string          `db:"contact_info" json:"contact_info"`
	TotalPrice      decimal.Decimal `db:"total_price" json:"total_price"`
	Status          OrderStatus     `db:"status" json:"status"`
	CreatedAt       string          `db:"created_at" json:"created_at"`
	UpdatedAt       string          `db:"updated_at" json:"updated_at"`
	Items           []OrderItem     `db:"-" json:"items"`
}

type OrderItem struct {
	ID              int64           `db:"id" json:"id"`
	OrderID         string          `db:"order_id" json:"order_id"`
	ProductID       int64           `db:"product_id" json:"product_id"`
	ProductName     string          `db:"product_name" json:"product_name"`
	Quantity        int             `db:"quantity" json:"quantity"`
	PriceAtPurchase decimal.Decimal `db:"price_at_purchase" json:"price_at_purchase"`
	TrackingCode    string          `db:"tracking_code" json:"tracking_code,omitempty"`
	Status          ItemStatus      `db:"status" json:"status"`
}

func (i OrderItem) Total() decimal.Decimal {
	return i.PriceAtPurchase.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ShippingInfo is assembled and validated by the form layer before checkout.
type ShippingInfo struct {
	FullName string
	Contact  string
	Address  string
}

// ActorContext identifies the requester explicitly. UserID is empty for anonymous
// visitors; AnonCartID is the anonymous cart reference stored in the session, if any.
type ActorContext struct {
	UserID     string
	SessionKey string
	AnonCartID string
}

func (a ActorContext) Authenticated() bool { return a.UserID != "" }

// Availability is the shopper-facing view of a product's stock.
type Availability struct {
	Status string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Qty    int    `json:"qty"`
}

// ContactMessage is a message left through the contact form.
type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}
