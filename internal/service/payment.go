package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/linemk/e-store/internal/clients"
	"github.com/linemk/e-store/internal/domain/models"
	"github.com/linemk/e-store/internal/storage"
)

// События webhook платёжного шлюза.
const (
	EventChargeSuccess = "charge.success"
	EventChargeFailed  = "charge.failed"
)

// PaymentService инициализирует платежи во внешнем шлюзе и ведёт
// локальные записи checkout: pending -> success | failed.
type PaymentService interface {
	Initialize(ctx context.Context, amount decimal.Decimal, customerName, customerEmail string) (*InitializeResult, error)
	HandleWebhook(ctx context.Context, event, reference string) error
}

// InitializeResult — то, что нужно клиенту для продолжения оплаты.
type InitializeResult struct {
	Reference   string `json:"reference"`
	CheckoutURL string `json:"checkout_url"`
}

type paymentService struct {
	log          *slog.Logger
	checkoutRepo storage.CheckoutStorage
	gateway      clients.PaymentGateway
	currency     string
}

func NewPaymentService(log *slog.Logger, checkoutRepo storage.CheckoutStorage, gateway clients.PaymentGateway, currency string) PaymentService {
	return &paymentService{
		log:          log,
		checkoutRepo: checkoutRepo,
		gateway:      gateway,
		currency:     currency,
	}
}

// Initialize генерирует одноразовый референс, инициализирует платёж в шлюзе
// и сохраняет pending-запись. Запись создаётся только после успешного
// ответа шлюза: иначе webhook по ней никогда не придёт.
func (s *paymentService) Initialize(ctx context.Context, amount decimal.Decimal, customerName, customerEmail string) (*InitializeResult, error) {
	const op = "service.PaymentService.Initialize"
	logger := s.log.With(slog.String("op", op), slog.String("amount", amount.String()))
	logger.Info("initializing payment")

	reference := uuid.NewString()

	resp, err := s.gateway.InitializeCharge(ctx, clients.ChargeRequest{
		Amount:    amount,
		Currency:  s.currency,
		Reference: reference,
		Customer: clients.ChargeCustomer{
			Name:  customerName,
			Email: customerEmail,
		},
	})
	if err != nil {
		logger.Error("gateway initialize failed", slog.Any("error", err))
		return nil, ErrGatewayUnavailable
	}

	// Шлюз может вернуть собственный референс — тогда он главнее
	if resp.Reference != "" {
		reference = resp.Reference
	}

	checkout := &models.Checkout{
		Reference:   reference,
		Email:       customerEmail,
		Amount:      amount,
		Status:      models.CheckoutStatusPending,
		PaymentDate: time.Now(),
	}
	if _, err := s.checkoutRepo.CreateCheckout(ctx, checkout); err != nil {
		logger.Error("failed to persist checkout", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to persist checkout: %w", op, err)
	}

	logger.Info("payment initialized", slog.String("reference", reference))
	return &InitializeResult{Reference: reference, CheckoutURL: resp.CheckoutURL}, nil
}

// HandleWebhook переводит checkout в конечный статус по событию шлюза.
// Повторная доставка уже применённого события — no-op.
func (s *paymentService) HandleWebhook(ctx context.Context, event, reference string) error {
	const op = "service.PaymentService.HandleWebhook"
	logger := s.log.With(slog.String("op", op), slog.String("event", event), slog.String("reference", reference))
	logger.Info("processing payment webhook")

	var status string
	switch event {
	case EventChargeSuccess:
		status = models.CheckoutStatusSuccess
	case EventChargeFailed:
		status = models.CheckoutStatusFailed
	default:
		return ErrUnknownEvent
	}

	checkout, err := s.checkoutRepo.GetCheckoutByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, storage.ErrCheckoutNotFound) {
			return storage.ErrCheckoutNotFound
		}
		logger.Error("failed to get checkout", slog.Any("error", err))
		return fmt.Errorf("%s: failed to get checkout: %w", op, err)
	}

	if checkout.Status != models.CheckoutStatusPending {
		logger.Info("checkout already finalized", slog.String("status", checkout.Status))
		return nil
	}

	if err := s.checkoutRepo.UpdateStatusByReference(ctx, reference, status); err != nil {
		logger.Error("failed to update checkout status", slog.Any("error", err))
		return fmt.Errorf("%s: failed to update status: %w", op, err)
	}

	logger.Info("checkout status updated", slog.String("status", status))
	return nil
}
