package clients

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// ChargeCustomer — плательщик, как его ожидает шлюз.
type ChargeCustomer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ChargeRequest — запрос на инициализацию платежа во внешнем шлюзе.
type ChargeRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Reference string          `json:"reference"`
	Customer  ChargeCustomer  `json:"customer"`
}

// ChargeResponse — ответ шлюза: референс и ссылка на страницу оплаты.
type ChargeResponse struct {
	Reference   string `json:"reference"`
	CheckoutURL string `json:"checkout_url"`
}

// PaymentGateway описывает внешний платёжный шлюз.
type PaymentGateway interface {
	InitializeCharge(ctx context.Context, req ChargeRequest) (*ChargeResponse, error)
}

type httpPaymentGateway struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewPaymentGateway(baseURL, secretKey string) PaymentGateway {
	return &httpPaymentGateway{
		baseURL:    baseURL,
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *httpPaymentGateway) InitializeCharge(ctx context.Context, chargeReq ChargeRequest) (*ChargeResponse, error) {
	payload, err := json.Marshal(chargeReq)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/merchant/api/v1/charges/initialize", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("payment gateway returned status %d", resp.StatusCode)
	}

	// Шлюз оборачивает полезную нагрузку в {status, message, data}
	var out struct {
		Status bool           `json:"status"`
		Data   ChargeResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if !out.Status {
		return nil, fmt.Errorf("payment gateway rejected charge %s", chargeReq.Reference)
	}
	return &out.Data, nil
}

// VerifyWebhookSignature сравнивает подпись из заголовка webhook
// с HMAC-SHA256 от тела запроса на секретном ключе шлюза.
func VerifyWebhookSignature(body []byte, signature, secretKey string) bool {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
