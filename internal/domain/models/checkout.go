package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Статусы платежа. Переход только pending -> success | failed,
// статус меняет webhook платёжного шлюза.
const (
	CheckoutStatusPending = "pending"
	CheckoutStatusSuccess = "success"
	CheckoutStatusFailed  = "failed"
)

// Checkout представляет запись об инициализированном платеже
type Checkout struct {
	ID          int64           `json:"id"`
	Reference   string          `json:"reference"` // одноразовый референс, связывает запись с платежом в шлюзе
	Email       string          `json:"email"`
	Amount      decimal.Decimal `json:"amount"`
	Status      string          `json:"status"`
	PaymentDate time.Time       `json:"payment_date"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
