package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/linemk/e-store/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/e-store/internal/service"
	"github.com/linemk/e-store/internal/storage"
)

// AddToCartHandler обрабатывает запрос POST /api/v1/cart/{productId}.
func AddToCartHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AddToCartHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			writeMessage(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		productID, err := strconv.ParseInt(chi.URLParam(r, "productId"), 10, 64)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid product id")
			return
		}

		cart, err := cartService.AddToCart(r.Context(), userID, productID)
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrUserNotFound):
				writeMessage(w, http.StatusNotFound, "User not found")
			case errors.Is(err, storage.ErrProductNotFound):
				writeMessage(w, http.StatusNotFound, "Product not found")
			default:
				logger.Error("failed to add to cart", slog.Any("error", err))
				writeMessage(w, http.StatusInternalServerError, "internal server error")
			}
			return
		}

		writeJSON(w, http.StatusCreated, dataResponse{Message: "Product added to cart", Data: cart})
	}
}

// GetCartHandler обрабатывает запрос GET /api/v1/cart.
func GetCartHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetCartHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			writeMessage(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		cart, err := cartService.GetCart(r.Context(), userID)
		if err != nil {
			logger.Error("failed to get cart", slog.Any("error", err))
			writeMessage(w, http.StatusInternalServerError, "internal server error")
			return
		}

		writeJSON(w, http.StatusOK, dataResponse{Message: "Cart below", Data: cart})
	}
}
