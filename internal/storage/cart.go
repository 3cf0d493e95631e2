package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/linemk/e-store/internal/domain/models"
)

var ErrCartNotFound = errors.New("cart not found")

// CartStorage описывает методы для работы с корзиной и её позициями.
// Мутирующие методы принимают транзакцию: пересчёт итогов идёт
// под блокировкой строки корзины.
type CartStorage interface {
	// GetCartByUserID возвращает корзину пользователя вместе с позициями.
	GetCartByUserID(ctx context.Context, userID int64) (*models.Cart, error)
	// LockCartByUserIDTx блокирует строку корзины на время транзакции.
	LockCartByUserIDTx(ctx context.Context, tx *sql.Tx, userID int64) (*models.Cart, error)
	CreateCartTx(ctx context.Context, tx *sql.Tx, userID int64) (*models.Cart, error)
	GetCartItemsTx(ctx context.Context, tx *sql.Tx, cartID int64) ([]*models.CartItem, error)
	InsertItemTx(ctx context.Context, tx *sql.Tx, item *models.CartItem) error
	UpdateItemTx(ctx context.Context, tx *sql.Tx, itemID int64, quantity int, lineTotal decimal.Decimal) error
	UpdateGrandTotalTx(ctx context.Context, tx *sql.Tx, cartID int64, grandTotal decimal.Decimal) error
}

type cartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) CartStorage {
	return &cartRepository{db: db}
}

const cartItemColumns = "id, cart_id, product_id, product_name, unit_price, quantity, line_total"

func (r *cartRepository) GetCartByUserID(ctx context.Context, userID int64) (*models.Cart, error) {
	cart := &models.Cart{}
	row := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, grand_total, created_at, updated_at FROM carts WHERE user_id = $1", userID)
	if err := row.Scan(&cart.ID, &cart.UserID, &cart.GrandTotal, &cart.CreatedAt, &cart.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+cartItemColumns+" FROM cart_items WHERE cart_id = $1 ORDER BY id", cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		item := &models.CartItem{}
		if err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.ProductName,
			&item.UnitPrice, &item.Quantity, &item.LineTotal); err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *cartRepository) LockCartByUserIDTx(ctx context.Context, tx *sql.Tx, userID int64) (*models.Cart, error) {
	cart := &models.Cart{}

	row := tx.QueryRowContext(ctx,
		"SELECT id, user_id, grand_total, created_at, updated_at FROM carts WHERE user_id = $1 FOR UPDATE NOWAIT", userID)
	if err := row.Scan(&cart.ID, &cart.UserID, &cart.GrandTotal, &cart.CreatedAt, &cart.UpdatedAt); err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "55P03" { // lock
				return nil, fmt.Errorf("resource is locked, please try again: %w", err)
			}
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}
	return cart, nil
}

func (r *cartRepository) CreateCartTx(ctx context.Context, tx *sql.Tx, userID int64) (*models.Cart, error) {
	cart := &models.Cart{UserID: userID, GrandTotal: decimal.Zero}
	err := tx.QueryRowContext(ctx,
		"INSERT INTO carts (user_id, grand_total) VALUES ($1, 0) RETURNING id, created_at, updated_at",
		userID,
	).Scan(&cart.ID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *cartRepository) GetCartItemsTx(ctx context.Context, tx *sql.Tx, cartID int64) ([]*models.CartItem, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT "+cartItemColumns+" FROM cart_items WHERE cart_id = $1 ORDER BY id", cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.CartItem
	for rows.Next() {
		item := &models.CartItem{}
		if err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.ProductName,
			&item.UnitPrice, &item.Quantity, &item.LineTotal); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *cartRepository) InsertItemTx(ctx context.Context, tx *sql.Tx, item *models.CartItem) error {
	err := tx.QueryRowContext(ctx,
		`INSERT INTO cart_items (cart_id, product_id, product_name, unit_price, quantity, line_total)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		item.CartID, item.ProductID, item.ProductName, item.UnitPrice, item.Quantity, item.LineTotal,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("failed to insert cart item: %w", err)
	}
	return nil
}

func (r *cartRepository) UpdateItemTx(ctx context.Context, tx *sql.Tx, itemID int64, quantity int, lineTotal decimal.Decimal) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE cart_items SET quantity = $1, line_total = $2 WHERE id = $3",
		quantity, lineTotal, itemID)
	if err != nil {
		return fmt.Errorf("failed to update cart item: %w", err)
	}
	return nil
}

func (r *cartRepository) UpdateGrandTotalTx(ctx context.Context, tx *sql.Tx, cartID int64, grandTotal decimal.Decimal) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE carts SET grand_total = $1, updated_at = NOW() WHERE id = $2",
		grandTotal, cartID)
	if err != nil {
		return fmt.Errorf("failed to update cart total: %w", err)
	}
	return nil
}
