package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/linemk/e-store/internal/service"
	"github.com/linemk/e-store/internal/storage"
)

// максимальный размер multipart-формы с картинкой
const maxProductFormSize = 10 << 20

// parseProductForm разбирает multipart-форму создания/обновления товара.
// Картинка опциональна.
func parseProductForm(r *http.Request) (service.ProductInput, func(), error) {
	cleanup := func() {}

	if err := r.ParseMultipartForm(maxProductFormSize); err != nil {
		return service.ProductInput{}, cleanup, errors.New("invalid multipart form")
	}

	name := r.FormValue("productName")
	description := r.FormValue("description")
	priceStr := r.FormValue("productPrice")
	if name == "" || priceStr == "" {
		return service.ProductInput{}, cleanup, errors.New("productName and productPrice are required")
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil || price.IsNegative() {
		return service.ProductInput{}, cleanup, errors.New("productPrice must be a non-negative number")
	}

	in := service.ProductInput{
		Name:        name,
		Description: description,
		Price:       price,
	}

	file, header, err := r.FormFile("image")
	if err == nil {
		in.Image = &service.ImageFile{Filename: header.Filename, Reader: file}
		cleanup = func() { _ = file.Close() }
	} else if !errors.Is(err, http.ErrMissingFile) {
		return service.ProductInput{}, cleanup, errors.New("invalid image upload")
	}

	return in, cleanup, nil
}

func productIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "productId"), 10, 64)
}

// CreateProductHandler обрабатывает запрос POST /api/v1/create/product.
func CreateProductHandler(log *slog.Logger, productService service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateProductHandler"
		logger := log.With(slog.String("op", op))

		in, cleanup, err := parseProductForm(r)
		if err != nil {
			logger.Error("invalid product form", slog.Any("error", err))
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		defer cleanup()

		product, err := productService.Create(r.Context(), in)
		if err != nil {
			logger.Error("failed to create product", slog.Any("error", err))
			writeMessage(w, http.StatusInternalServerError, "internal server error")
			return
		}

		writeJSON(w, http.StatusCreated, dataResponse{Message: "Product created successfully", Data: product})
	}
}

// GetProductHandler обрабатывает запрос GET /api/v1/product/{productId}.
func GetProductHandler(log *slog.Logger, productService service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetProductHandler"
		logger := log.With(slog.String("op", op))

		productID, err := productIDParam(r)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid product id")
			return
		}

		product, err := productService.Get(r.Context(), productID)
		if err != nil {
			if errors.Is(err, storage.ErrProductNotFound) {
				writeMessage(w, http.StatusNotFound, "Product not found")
				return
			}
			logger.Error("failed to get product", slog.Any("error", err))
			writeMessage(w, http.StatusInternalServerError, "internal server error")
			return
		}

		writeJSON(w, http.StatusOK, dataResponse{Message: "Kindly find the product below", Data: product})
	}
}

// ListProductsHandler обрабатывает запрос GET /api/v1/products.
func ListProductsHandler(log *slog.Logger, productService service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListProductsHandler"
		logger := log.With(slog.String("op", op))

		products, err := productService.List(r.Context())
		if err != nil {
			logger.Error("failed to list products", slog.Any("error", err))
			writeMessage(w, http.StatusInternalServerError, "internal server error")
			return
		}

		writeJSON(w, http.StatusOK, dataResponse{Message: "All products in the database", Data: products})
	}
}

// UpdateProductHandler обрабатывает запрос PUT /api/v1/update/{productId}.
func UpdateProductHandler(log *slog.Logger, productService service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateProductHandler"
		logger := log.With(slog.String("op", op))

		productID, err := productIDParam(r)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid product id")
			return
		}

		in, cleanup, err := parseProductForm(r)
		if err != nil {
			logger.Error("invalid product form", slog.Any("error", err))
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		defer cleanup()

		product, err := productService.Update(r.Context(), productID, in)
		if err != nil {
			if errors.Is(err, storage.ErrProductNotFound) {
				writeMessage(w, http.StatusNotFound, "Product not found")
				return
			}
			logger.Error("failed to update product", slog.Any("error", err))
			writeMessage(w, http.StatusInternalServerError, "internal server error")
			return
		}

		writeJSON(w, http.StatusOK, dataResponse{Message: "Product updated successfully", Data: product})
	}
}

// DeleteProductHandler обрабатывает запрос DELETE /api/v1/delete/{productId}.
// Сначала удаляется картинка во внешнем хостинге, потом запись.
func DeleteProductHandler(log *slog.Logger, productService service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteProductHandler"
		logger := log.With(slog.String("op", op))

		productID, err := productIDParam(r)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid product id")
			return
		}

		if err := productService.Delete(r.Context(), productID); err != nil {
			if errors.Is(err, storage.ErrProductNotFound) {
				writeMessage(w, http.StatusNotFound, "Product not found")
				return
			}
			logger.Error("failed to delete product", slog.Any("error", err))
			writeMessage(w, http.StatusInternalServerError, "internal server error")
			return
		}

		writeMessage(w, http.StatusOK, "Product deleted successfully")
	}
}
