package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart представляет корзину пользователя. У каждого пользователя не более
// одной корзины, она создаётся лениво при первом добавлении товара.
type Cart struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"user_id"`
	Items      []*CartItem     `json:"items"`
	GrandTotal decimal.Decimal `json:"grand_total"` // всегда равен сумме LineTotal всех позиций
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// CartItem представляет одну позицию корзины
type CartItem struct {
	ID          int64           `json:"id"`
	CartID      int64           `json:"-"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"` // фиксируется на момент добавления
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"` // всегда равен UnitPrice * Quantity
}
