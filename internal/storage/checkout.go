package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/e-store/internal/domain/models"
)

var ErrCheckoutNotFound = errors.New("checkout not found")

// CheckoutStorage описывает методы для работы с записями о платежах.
type CheckoutStorage interface {
	// CreateCheckout сохраняет запись о платеже в статусе pending.
	CreateCheckout(ctx context.Context, checkout *models.Checkout) (*models.Checkout, error)
	GetCheckoutByReference(ctx context.Context, reference string) (*models.Checkout, error)
	// UpdateStatusByReference переводит платёж в конечный статус по референсу из webhook.
	UpdateStatusByReference(ctx context.Context, reference, status string) error
}

type checkoutRepository struct {
	db *sql.DB
}

func NewCheckoutRepository(db *sql.DB) CheckoutStorage {
	return &checkoutRepository{db: db}
}

func (r *checkoutRepository) CreateCheckout(ctx context.Context, checkout *models.Checkout) (*models.Checkout, error) {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO checkouts (reference, email, amount, status, payment_date)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at`,
		checkout.Reference, checkout.Email, checkout.Amount, checkout.Status, checkout.PaymentDate,
	).Scan(&checkout.ID, &checkout.CreatedAt, &checkout.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout: %w", err)
	}
	return checkout, nil
}

func (r *checkoutRepository) GetCheckoutByReference(ctx context.Context, reference string) (*models.Checkout, error) {
	checkout := &models.Checkout{}
	row := r.db.QueryRowContext(ctx,
		`SELECT id, reference, email, amount, status, payment_date, created_at, updated_at
		 FROM checkouts WHERE reference = $1`, reference)
	if err := row.Scan(&checkout.ID, &checkout.Reference, &checkout.Email, &checkout.Amount,
		&checkout.Status, &checkout.PaymentDate, &checkout.CreatedAt, &checkout.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCheckoutNotFound
		}
		return nil, err
	}
	return checkout, nil
}

func (r *checkoutRepository) UpdateStatusByReference(ctx context.Context, reference, status string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE checkouts SET status = $1, updated_at = NOW() WHERE reference = $2",
		status, reference)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCheckoutNotFound
	}
	return nil
}
