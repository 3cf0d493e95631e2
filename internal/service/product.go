package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/linemk/e-store/internal/clients"
	"github.com/linemk/e-store/internal/domain/models"
	"github.com/linemk/e-store/internal/storage"
)

// ProductService — CRUD каталога товаров. Картинки живут во внешнем
// хостинге, в БД хранится только ссылка и public id.
type ProductService interface {
	Create(ctx context.Context, in ProductInput) (*models.Product, error)
	Get(ctx context.Context, productID int64) (*models.Product, error)
	List(ctx context.Context) ([]*models.Product, error)
	Update(ctx context.Context, productID int64, in ProductInput) (*models.Product, error)
	Delete(ctx context.Context, productID int64) error
}

// ProductInput — данные формы создания/обновления товара.
// Image опциональна.
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Image       *ImageFile
}

type ImageFile struct {
	Filename string
	Reader   io.Reader
}

type productService struct {
	log         *slog.Logger
	productRepo storage.ProductStorage
	images      clients.ImageStore
}

func NewProductService(log *slog.Logger, productRepo storage.ProductStorage, images clients.ImageStore) ProductService {
	return &productService{log: log, productRepo: productRepo, images: images}
}

func (s *productService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	const op = "service.ProductService.Create"
	logger := s.log.With(slog.String("op", op), slog.String("name", in.Name))
	logger.Info("creating product")

	product := &models.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
	}

	if in.Image != nil {
		uploaded, err := s.images.Upload(ctx, in.Image.Filename, in.Image.Reader)
		if err != nil {
			logger.Error("failed to upload image", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to upload image: %w", op, err)
		}
		product.ImageURL = uploaded.URL
		product.ImagePublicID = uploaded.PublicID
	}

	product, err := s.productRepo.CreateProduct(ctx, product)
	if err != nil {
		logger.Error("failed to create product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create product: %w", op, err)
	}

	logger.Info("product created", slog.Int64("productID", product.ID))
	return product, nil
}

func (s *productService) Get(ctx context.Context, productID int64) (*models.Product, error) {
	const op = "service.ProductService.Get"

	product, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, storage.ErrProductNotFound
		}
		s.log.Error("failed to get product", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get product: %w", op, err)
	}
	return product, nil
}

func (s *productService) List(ctx context.Context) ([]*models.Product, error) {
	const op = "service.ProductService.List"

	products, err := s.productRepo.ListProducts(ctx)
	if err != nil {
		s.log.Error("failed to list products", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list products: %w", op, err)
	}
	return products, nil
}

// Update обновляет товар. Новая картинка заменяет старую:
// сначала удаляется старая во внешнем хостинге, потом загружается новая.
func (s *productService) Update(ctx context.Context, productID int64, in ProductInput) (*models.Product, error) {
	const op = "service.ProductService.Update"
	logger := s.log.With(slog.String("op", op), slog.Int64("productID", productID))
	logger.Info("updating product")

	product, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, storage.ErrProductNotFound
		}
		logger.Error("failed to get product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get product: %w", op, err)
	}

	product.Name = in.Name
	product.Description = in.Description
	product.Price = in.Price

	if in.Image != nil {
		if product.ImagePublicID != "" {
			if err := s.images.Destroy(ctx, product.ImagePublicID); err != nil {
				logger.Warn("failed to destroy old image", slog.Any("error", err))
			}
		}
		uploaded, err := s.images.Upload(ctx, in.Image.Filename, in.Image.Reader)
		if err != nil {
			logger.Error("failed to upload image", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to upload image: %w", op, err)
		}
		product.ImageURL = uploaded.URL
		product.ImagePublicID = uploaded.PublicID
	}

	if err := s.productRepo.UpdateProduct(ctx, product); err != nil {
		logger.Error("failed to update product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to update product: %w", op, err)
	}

	logger.Info("product updated")
	return product, nil
}

// Delete удаляет товар: сначала картинку во внешнем хостинге, потом запись.
func (s *productService) Delete(ctx context.Context, productID int64) error {
	const op = "service.ProductService.Delete"
	logger := s.log.With(slog.String("op", op), slog.Int64("productID", productID))
	logger.Info("deleting product")

	product, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return storage.ErrProductNotFound
		}
		logger.Error("failed to get product", slog.Any("error", err))
		return fmt.Errorf("%s: failed to get product: %w", op, err)
	}

	if product.ImagePublicID != "" {
		if err := s.images.Destroy(ctx, product.ImagePublicID); err != nil {
			logger.Error("failed to destroy image", slog.Any("error", err))
			return fmt.Errorf("%s: failed to destroy image: %w", op, err)
		}
	}

	if err := s.productRepo.DeleteProduct(ctx, productID); err != nil {
		logger.Error("failed to delete product", slog.Any("error", err))
		return fmt.Errorf("%s: failed to delete product: %w", op, err)
	}

	logger.Info("product deleted")
	return nil
}
