package clients_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/linemk/e-store/internal/clients"
)

func TestInitializeCharge_Success(t *testing.T) {
	// Поднимаем httptest-сервер вместо реального шлюза.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/merchant/api/v1/charges/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))

		var req clients.ChargeRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "NGN", req.Currency)
		assert.Equal(t, "ref-1", req.Reference)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": true,
			"data": map[string]string{
				"reference":    "ref-1",
				"checkout_url": "https://gateway.example/checkout/ref-1",
			},
		})
	}))
	defer srv.Close()

	gw := clients.NewPaymentGateway(srv.URL, "sk_test")
	resp, err := gw.InitializeCharge(context.Background(), clients.ChargeRequest{
		Amount:    decimal.NewFromInt(150),
		Currency:  "NGN",
		Reference: "ref-1",
		Customer:  clients.ChargeCustomer{Name: "Alice", Email: "alice@example.com"},
	})

	assert.NoError(t, err)
	assert.Equal(t, "ref-1", resp.Reference)
	assert.Equal(t, "https://gateway.example/checkout/ref-1", resp.CheckoutURL)
}

func TestInitializeCharge_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"status": false})
	}))
	defer srv.Close()

	gw := clients.NewPaymentGateway(srv.URL, "sk_test")
	resp, err := gw.InitializeCharge(context.Background(), clients.ChargeRequest{Reference: "ref-1"})

	assert.Nil(t, resp)
	assert.Error(t, err, "Expected error when gateway rejects charge")
}

func TestInitializeCharge_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	gw := clients.NewPaymentGateway(srv.URL, "sk_test")
	resp, err := gw.InitializeCharge(context.Background(), clients.ChargeRequest{Reference: "ref-1"})

	assert.Nil(t, resp)
	assert.Error(t, err)
}

func TestImageUpload_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/image/upload", r.URL.Path)
		assert.Equal(t, "Bearer api-key", r.Header.Get("Authorization"))

		// Картинка приходит multipart-полем image.
		file, header, err := r.FormFile("image")
		assert.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "widget.png", header.Filename)

		json.NewEncoder(w).Encode(map[string]string{
			"secure_url": "https://img.example/widget.png",
			"public_id":  "widget-1",
		})
	}))
	defer srv.Close()

	store := clients.NewImageStore(srv.URL, "api-key")
	uploaded, err := store.Upload(context.Background(), "widget.png", strings.NewReader("fake-image-bytes"))

	assert.NoError(t, err)
	assert.Equal(t, "https://img.example/widget.png", uploaded.URL)
	assert.Equal(t, "widget-1", uploaded.PublicID)
}

func TestImageDestroy_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	store := clients.NewImageStore(srv.URL, "api-key")
	err := store.Destroy(context.Background(), "widget-1")
	assert.Error(t, err, "Expected error on non-200 response")
}

func TestVerifyWebhookSignature(t *testing.T) {
	body := []byte(`{"event": "charge.success", "data": {"reference": "ref-1"}}`)
	const secret = "sk_test"

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	valid := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, clients.VerifyWebhookSignature(body, valid, secret))
	assert.False(t, clients.VerifyWebhookSignature(body, "deadbeef", secret))
	assert.False(t, clients.VerifyWebhookSignature(body, valid, "other-secret"))
	assert.False(t, clients.VerifyWebhookSignature([]byte("tampered"), valid, secret))
}
