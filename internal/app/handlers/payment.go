package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/linemk/e-store/internal/clients"
	"github.com/linemk/e-store/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/e-store/internal/service"
	"github.com/linemk/e-store/internal/storage"
)

// SignatureHeader — заголовок с HMAC-подписью webhook от шлюза.
const SignatureHeader = "X-Payment-Signature"

// InitializePaymentRequest представляет запрос на инициализацию платежа
type InitializePaymentRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Customer struct {
		Name  string `json:"name" validate:"required"`
		Email string `json:"email" validate:"required,email"`
	} `json:"customer"`
}

// webhookPayload — событие от платёжного шлюза
type webhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
	} `json:"data"`
}

// InitializePaymentHandler обрабатывает запрос POST /api/v1/payment/initialize.
func InitializePaymentHandler(log *slog.Logger, paymentService service.PaymentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.InitializePaymentHandler"
		logger := log.With(slog.String("op", op))

		if _, ok := jwtmiddleware.FromContext(r.Context()); !ok {
			logger.Error("userID not found in context")
			writeMessage(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req InitializePaymentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeMessage(w, http.StatusBadRequest, "invalid request")
			return
		}

		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			writeMessage(w, http.StatusBadRequest, "validation error: "+err.Error())
			return
		}
		if !req.Amount.IsPositive() {
			writeMessage(w, http.StatusBadRequest, "amount must be positive")
			return
		}

		result, err := paymentService.Initialize(r.Context(), req.Amount, req.Customer.Name, req.Customer.Email)
		if err != nil {
			if errors.Is(err, service.ErrGatewayUnavailable) {
				writeMessage(w, http.StatusBadGateway, "payment gateway unavailable")
				return
			}
			logger.Error("failed to initialize payment", slog.Any("error", err))
			writeMessage(w, http.StatusInternalServerError, "error initializing payment")
			return
		}

		writeJSON(w, http.StatusOK, dataResponse{Message: "Payment initialized", Data: result})
	}
}

// PaymentWebhookHandler обрабатывает запрос POST /api/v1/payment/webhook.
// Подпись проверяется по сырому телу запроса до разбора JSON.
func PaymentWebhookHandler(log *slog.Logger, paymentService service.PaymentService, secretKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.PaymentWebhookHandler"
		logger := log.With(slog.String("op", op))

		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid request")
			return
		}

		if !clients.VerifyWebhookSignature(body, r.Header.Get(SignatureHeader), secretKey) {
			logger.Warn("webhook signature mismatch")
			writeMessage(w, http.StatusUnauthorized, "invalid signature")
			return
		}

		var payload webhookPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			logger.Error("invalid webhook payload", slog.Any("error", err))
			writeMessage(w, http.StatusBadRequest, "invalid payload")
			return
		}

		err = paymentService.HandleWebhook(r.Context(), payload.Event, payload.Data.Reference)
		switch {
		case err == nil:
			writeMessage(w, http.StatusOK, "OK")
		case errors.Is(err, service.ErrUnknownEvent):
			writeMessage(w, http.StatusBadRequest, "unknown event")
		case errors.Is(err, storage.ErrCheckoutNotFound):
			writeMessage(w, http.StatusNotFound, "checkout not found")
		default:
			logger.Error("failed to process webhook", slog.Any("error", err))
			writeMessage(w, http.StatusInternalServerError, "error processing webhook")
		}
	}
}
