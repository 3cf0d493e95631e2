package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/linemk/e-store/internal/domain/models"
	"github.com/linemk/e-store/internal/storage"
)

// CartService — накопление корзины.
type CartService interface {
	AddToCart(ctx context.Context, userID, productID int64) (*models.Cart, error)
	GetCart(ctx context.Context, userID int64) (*models.Cart, error)
}

type cartService struct {
	log         *slog.Logger
	db          *sql.DB
	userRepo    storage.UserStorage
	productRepo storage.ProductStorage
	cartRepo    storage.CartStorage
}

func NewCartService(log *slog.Logger, db *sql.DB, userRepo storage.UserStorage, productRepo storage.ProductStorage, cartRepo storage.CartStorage) CartService {
	return &cartService{
		log:         log,
		db:          db,
		userRepo:    userRepo,
		productRepo: productRepo,
		cartRepo:    cartRepo,
	}
}

// AddToCart добавляет единицу товара в корзину пользователя.
// Пересчёт позиций и общей суммы идёт в транзакции под блокировкой
// строки корзины, иначе два параллельных добавления теряют обновление.
// Инварианты: line_total = unit_price * quantity, grand_total = сумма line_total.
func (s *cartService) AddToCart(ctx context.Context, userID, productID int64) (*models.Cart, error) {
	const op = "service.CartService.AddToCart"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("productID", productID))
	logger.Info("adding product to cart")

	if _, err := s.userRepo.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, storage.ErrUserNotFound
		}
		logger.Error("failed to get user", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	product, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, storage.ErrProductNotFound
		}
		logger.Error("failed to get product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get product: %w", op, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	// Корзина создаётся лениво при первом добавлении
	cart, err := s.cartRepo.LockCartByUserIDTx(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrCartNotFound) {
			cart, err = s.cartRepo.CreateCartTx(ctx, tx, userID)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("transaction rollback failed", slog.Any("error", rbErr))
			}
			logger.Error("failed to get cart", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to get cart: %w", op, err)
		}
	}

	items, err := s.cartRepo.GetCartItemsTx(ctx, tx, cart.ID)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to get cart items", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get cart items: %w", op, err)
	}

	var existing *models.CartItem
	for _, item := range items {
		if item.ProductID == productID {
			existing = item
			break
		}
	}

	if existing != nil {
		existing.Quantity++
		existing.LineTotal = existing.UnitPrice.Mul(decimal.NewFromInt(int64(existing.Quantity)))
		if err := s.cartRepo.UpdateItemTx(ctx, tx, existing.ID, existing.Quantity, existing.LineTotal); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("transaction rollback failed", slog.Any("error", rbErr))
			}
			logger.Error("failed to update cart item", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to update cart item: %w", op, err)
		}
	} else {
		// Новая позиция: количество 1, сумма строки равна цене единицы
		newItem := &models.CartItem{
			CartID:      cart.ID,
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    1,
			LineTotal:   product.Price,
		}
		if err := s.cartRepo.InsertItemTx(ctx, tx, newItem); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("transaction rollback failed", slog.Any("error", rbErr))
			}
			logger.Error("failed to insert cart item", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to insert cart item: %w", op, err)
		}
		items = append(items, newItem)
	}

	grandTotal := decimal.Zero
	for _, item := range items {
		grandTotal = grandTotal.Add(item.LineTotal)
	}
	if err := s.cartRepo.UpdateGrandTotalTx(ctx, tx, cart.ID, grandTotal); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to update grand total", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to update grand total: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	cart.Items = items
	cart.GrandTotal = grandTotal

	logger.Info("product added to cart", slog.String("grandTotal", grandTotal.String()))
	return cart, nil
}

// GetCart возвращает корзину пользователя; если корзины ещё нет —
// пустую корзину, не ошибку.
func (s *cartService) GetCart(ctx context.Context, userID int64) (*models.Cart, error) {
	const op = "service.CartService.GetCart"

	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrCartNotFound) {
			return &models.Cart{UserID: userID, GrandTotal: decimal.Zero}, nil
		}
		s.log.Error("failed to get cart", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get cart: %w", op, err)
	}
	return cart, nil
}
