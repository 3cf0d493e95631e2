package handlers_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/linemk/e-store/internal/app/handlers"
	"github.com/linemk/e-store/internal/domain/models"
	"github.com/linemk/e-store/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/e-store/internal/service"
	"github.com/linemk/e-store/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

// fakeAuthService — фиктивная реализация AuthService для тестирования.
type fakeAuthService struct {
	user       *models.User
	token      string
	err        error
	registered bool
}

func (f *fakeAuthService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.registered = true
	return f.user, nil
}

func (f *fakeAuthService) VerifyEmail(ctx context.Context, token string) error { return f.err }

func (f *fakeAuthService) Login(ctx context.Context, username, password string) (string, error) {
	return f.token, f.err
}

func (f *fakeAuthService) ForgotPassword(ctx context.Context, email string) error { return f.err }

func (f *fakeAuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	return f.err
}

func (f *fakeAuthService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	return f.err
}

// fakeCartService — фиктивная реализация CartService
type fakeCartService struct {
	cart *models.Cart
	err  error
}

func (f *fakeCartService) AddToCart(ctx context.Context, userID, productID int64) (*models.Cart, error) {
	return f.cart, f.err
}

func (f *fakeCartService) GetCart(ctx context.Context, userID int64) (*models.Cart, error) {
	return f.cart, f.err
}

// fakeProductService — фиктивная реализация ProductService
type fakeProductService struct {
	product *models.Product
	list    []*models.Product
	err     error
}

func (f *fakeProductService) Create(ctx context.Context, in service.ProductInput) (*models.Product, error) {
	return f.product, f.err
}

func (f *fakeProductService) Get(ctx context.Context, productID int64) (*models.Product, error) {
	return f.product, f.err
}

func (f *fakeProductService) List(ctx context.Context) ([]*models.Product, error) {
	return f.list, f.err
}

func (f *fakeProductService) Update(ctx context.Context, productID int64, in service.ProductInput) (*models.Product, error) {
	return f.product, f.err
}

func (f *fakeProductService) Delete(ctx context.Context, productID int64) error { return f.err }

// fakePaymentService — фиктивная реализация PaymentService
type fakePaymentService struct {
	result *service.InitializeResult
	err    error
	event  string
	ref    string
}

func (f *fakePaymentService) Initialize(ctx context.Context, amount decimal.Decimal, customerName, customerEmail string) (*service.InitializeResult, error) {
	return f.result, f.err
}

func (f *fakePaymentService) HandleWebhook(ctx context.Context, event, reference string) error {
	f.event = event
	f.ref = reference
	return f.err
}

// withUserID эмулирует JWT middleware, устанавливая userID в контекст.
func withUserID(req *http.Request, userID int64) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), jwtmiddleware.UserIDKey, userID))
}

// withURLParam устанавливает URL-параметр chi в контекст запроса.
func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestRegisterHandler_Success(t *testing.T) {
	fakeSvc := &fakeAuthService{user: &models.User{ID: 1, Username: "alice", Email: "a@x.com"}}
	handler := handlers.RegisterHandler(testLogger(), fakeSvc)

	reqBody := `{"userName": "alice", "email": "a@x.com", "password": "Passw0rd!", "confirmPassword": "Passw0rd!"}`
	req := httptest.NewRequest("POST", "/api/v1/register", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code, "Expected status 201 Created")
	assert.True(t, fakeSvc.registered, "Service should be called")
}

// TestRegisterHandler_PasswordMismatch: несовпадение паролей — 400, аккаунт не создаётся.
func TestRegisterHandler_PasswordMismatch(t *testing.T) {
	fakeSvc := &fakeAuthService{user: &models.User{ID: 1}}
	handler := handlers.RegisterHandler(testLogger(), fakeSvc)

	reqBody := `{"userName": "alice", "email": "a@x.com", "password": "Passw0rd!", "confirmPassword": "Other1234!"}`
	req := httptest.NewRequest("POST", "/api/v1/register", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code, "Expected status 400 for password mismatch")
	assert.False(t, fakeSvc.registered, "Service must not be called on validation error")
}

func TestRegisterHandler_DuplicateEmail(t *testing.T) {
	fakeSvc := &fakeAuthService{err: service.ErrEmailTaken}
	handler := handlers.RegisterHandler(testLogger(), fakeSvc)

	reqBody := `{"userName": "alice", "email": "a@x.com", "password": "Passw0rd!", "confirmPassword": "Passw0rd!"}`
	req := httptest.NewRequest("POST", "/api/v1/register", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "Expected status 400 for duplicate email")
}

func TestRegisterHandler_InvalidJSON(t *testing.T) {
	fakeSvc := &fakeAuthService{}
	handler := handlers.RegisterHandler(testLogger(), fakeSvc)

	req := httptest.NewRequest("POST", "/api/v1/register", bytes.NewBufferString(`{"userName":`))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "Expected status 400 for invalid JSON")
}

func TestVerifyHandler_Success(t *testing.T) {
	fakeSvc := &fakeAuthService{}
	handler := handlers.VerifyHandler(testLogger(), fakeSvc)

	req := httptest.NewRequest("GET", "/api/v1/verify/user/some-token", nil)
	req = withURLParam(req, "token", "some-token")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code, "Expected status 200 for valid token")
}

// TestVerifyHandler_AlreadyVerified: повторная верификация — 400, не 200.
func TestVerifyHandler_AlreadyVerified(t *testing.T) {
	fakeSvc := &fakeAuthService{err: service.ErrAlreadyVerified}
	handler := handlers.VerifyHandler(testLogger(), fakeSvc)

	req := httptest.NewRequest("GET", "/api/v1/verify/user/some-token", nil)
	req = withURLParam(req, "token", "some-token")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "Expected status 400 for already verified account")
}

// TestVerifyHandler_LinkResent: просроченный токен — ссылка переотправлена, 201.
func TestVerifyHandler_LinkResent(t *testing.T) {
	fakeSvc := &fakeAuthService{err: service.ErrLinkResent}
	handler := handlers.VerifyHandler(testLogger(), fakeSvc)

	req := httptest.NewRequest("GET", "/api/v1/verify/user/expired-token", nil)
	req = withURLParam(req, "token", "expired-token")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusCreated, rr.Code, "Expected status 201 when link re-sent")

	var resp struct {
		Message string `json:"message"`
	}
	err := json.NewDecoder(rr.Body).Decode(&resp)
	assert.NoError(t, err)
	assert.Contains(t, resp.Message, "link has been sent")
}

func TestLoginHandler_Success(t *testing.T) {
	fakeSvc := &fakeAuthService{token: "test-token"}
	handler := handlers.LoginHandler(testLogger(), fakeSvc)

	reqBody := `{"userName": "alice", "password": "Passw0rd!"}`
	req := httptest.NewRequest("POST", "/api/v1/login", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code, "Expected status 200 OK")

	var resp handlers.LoginResponse
	err := json.NewDecoder(rr.Body).Decode(&resp)
	assert.NoError(t, err, "Response decoding should succeed")
	assert.Equal(t, "test-token", resp.Token, "Returned token should match fake token")
}

func TestLoginHandler_AccountNotFound(t *testing.T) {
	fakeSvc := &fakeAuthService{err: storage.ErrUserNotFound}
	handler := handlers.LoginHandler(testLogger(), fakeSvc)

	reqBody := `{"userName": "ghost", "password": "Passw0rd!"}`
	req := httptest.NewRequest("POST", "/api/v1/login", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code, "Expected status 404 for unknown username")
}

func TestLoginHandler_WrongPassword(t *testing.T) {
	fakeSvc := &fakeAuthService{err: service.ErrInvalidCredentials}
	handler := handlers.LoginHandler(testLogger(), fakeSvc)

	reqBody := `{"userName": "alice", "password": "WrongPass1!"}`
	req := httptest.NewRequest("POST", "/api/v1/login", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "Expected status 400 for wrong password")
}

func TestResetPasswordHandler_Mismatch(t *testing.T) {
	fakeSvc := &fakeAuthService{}
	handler := handlers.ResetPasswordHandler(testLogger(), fakeSvc)

	reqBody := `{"newPassword": "Passw0rd!", "confirmPassword": "Other1234!"}`
	req := httptest.NewRequest("POST", "/api/v1/reset/password/tok", bytes.NewBufferString(reqBody))
	req = withURLParam(req, "token", "tok")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "Expected status 400 for password mismatch")
}

func TestChangePasswordHandler_Unauthorized(t *testing.T) {
	fakeSvc := &fakeAuthService{}
	handler := handlers.ChangePasswordHandler(testLogger(), fakeSvc)

	reqBody := `{"password": "Passw0rd!", "newPassword": "NewPass1!", "confirmPassword": "NewPass1!"}`
	req := httptest.NewRequest("POST", "/api/v1/change/password", bytes.NewBufferString(reqBody))
	// Не добавляем userID в контекст.
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code, "Expected status 401 when userID is missing")
}

func TestAddToCartHandler_Success(t *testing.T) {
	price := decimal.NewFromInt(10)
	fakeSvc := &fakeCartService{cart: &models.Cart{
		ID:     1,
		UserID: 1,
		Items: []*models.CartItem{
			{ProductID: 5, ProductName: "P1", UnitPrice: price, Quantity: 2, LineTotal: decimal.NewFromInt(20)},
		},
		GrandTotal: decimal.NewFromInt(20),
	}}
	handler := handlers.AddToCartHandler(testLogger(), fakeSvc)

	req := httptest.NewRequest("POST", "/api/v1/cart/5", nil)
	req = withURLParam(req, "productId", "5")
	req = withUserID(req, 1)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code, "Expected status 201 Created")

	var resp struct {
		Data models.Cart `json:"data"`
	}
	err := json.NewDecoder(rr.Body).Decode(&resp)
	assert.NoError(t, err, "Response decoding should succeed")
	assert.Len(t, resp.Data.Items, 1)
	assert.Equal(t, 2, resp.Data.Items[0].Quantity)
	assert.True(t, resp.Data.GrandTotal.Equal(decimal.NewFromInt(20)), "Grand total should be 20")
}

func TestAddToCartHandler_ProductNotFound(t *testing.T) {
	fakeSvc := &fakeCartService{err: storage.ErrProductNotFound}
	handler := handlers.AddToCartHandler(testLogger(), fakeSvc)

	req := httptest.NewRequest("POST", "/api/v1/cart/99", nil)
	req = withURLParam(req, "productId", "99")
	req = withUserID(req, 1)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code, "Expected status 404 for missing product")
}

func TestAddToCartHandler_Unauthorized(t *testing.T) {
	fakeSvc := &fakeCartService{}
	handler := handlers.AddToCartHandler(testLogger(), fakeSvc)

	req := httptest.NewRequest("POST", "/api/v1/cart/5", nil)
	req = withURLParam(req, "productId", "5")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code, "Expected status 401 when userID is missing")
}

func TestGetProductHandler_NotFound(t *testing.T) {
	fakeSvc := &fakeProductService{err: storage.ErrProductNotFound}
	handler := handlers.GetProductHandler(testLogger(), fakeSvc)

	req := httptest.NewRequest("GET", "/api/v1/product/42", nil)
	req = withURLParam(req, "productId", "42")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code, "Expected status 404 for missing product")
}

func TestDeleteProductHandler_NotFound(t *testing.T) {
	fakeSvc := &fakeProductService{err: storage.ErrProductNotFound}
	handler := handlers.DeleteProductHandler(testLogger(), fakeSvc)

	req := httptest.NewRequest("DELETE", "/api/v1/delete/42", nil)
	req = withURLParam(req, "productId", "42")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code, "Expected status 404 when deleting missing product")
}

func TestDeleteProductHandler_Success(t *testing.T) {
	fakeSvc := &fakeProductService{}
	handler := handlers.DeleteProductHandler(testLogger(), fakeSvc)

	req := httptest.NewRequest("DELETE", "/api/v1/delete/42", nil)
	req = withURLParam(req, "productId", "42")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code, "Expected status 200 after deletion")
}

func TestInitializePaymentHandler_Success(t *testing.T) {
	fakeSvc := &fakePaymentService{result: &service.InitializeResult{
		Reference:   "ref-123",
		CheckoutURL: "https://gateway.example/checkout/ref-123",
	}}
	handler := handlers.InitializePaymentHandler(testLogger(), fakeSvc)

	reqBody := `{"amount": 150.50, "customer": {"name": "Alice", "email": "a@x.com"}}`
	req := httptest.NewRequest("POST", "/api/v1/payment/initialize", bytes.NewBufferString(reqBody))
	req = withUserID(req, 1)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code, "Expected status 200 OK")

	var resp struct {
		Data service.InitializeResult `json:"data"`
	}
	err := json.NewDecoder(rr.Body).Decode(&resp)
	assert.NoError(t, err)
	assert.Equal(t, "ref-123", resp.Data.Reference)
}

func TestInitializePaymentHandler_NonPositiveAmount(t *testing.T) {
	fakeSvc := &fakePaymentService{}
	handler := handlers.InitializePaymentHandler(testLogger(), fakeSvc)

	reqBody := `{"amount": 0, "customer": {"name": "Alice", "email": "a@x.com"}}`
	req := httptest.NewRequest("POST", "/api/v1/payment/initialize", bytes.NewBufferString(reqBody))
	req = withUserID(req, 1)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "Expected status 400 for non-positive amount")
}

func TestInitializePaymentHandler_GatewayDown(t *testing.T) {
	fakeSvc := &fakePaymentService{err: service.ErrGatewayUnavailable}
	handler := handlers.InitializePaymentHandler(testLogger(), fakeSvc)

	reqBody := `{"amount": 100, "customer": {"name": "Alice", "email": "a@x.com"}}`
	req := httptest.NewRequest("POST", "/api/v1/payment/initialize", bytes.NewBufferString(reqBody))
	req = withUserID(req, 1)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadGateway, rr.Code, "Expected status 502 when gateway fails")
}

func signBody(body, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestPaymentWebhookHandler_Success(t *testing.T) {
	const secret = "sk_test"
	fakeSvc := &fakePaymentService{}
	handler := handlers.PaymentWebhookHandler(testLogger(), fakeSvc, secret)

	body := `{"event": "charge.success", "data": {"reference": "ref-123"}}`
	req := httptest.NewRequest("POST", "/api/v1/payment/webhook", bytes.NewBufferString(body))
	req.Header.Set(handlers.SignatureHeader, signBody(body, secret))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code, "Expected status 200 OK")
	assert.Equal(t, "charge.success", fakeSvc.event)
	assert.Equal(t, "ref-123", fakeSvc.ref)
}

// TestPaymentWebhookHandler_BadSignature: неверная подпись — 401, статус не меняется.
func TestPaymentWebhookHandler_BadSignature(t *testing.T) {
	fakeSvc := &fakePaymentService{}
	handler := handlers.PaymentWebhookHandler(testLogger(), fakeSvc, "sk_test")

	body := `{"event": "charge.success", "data": {"reference": "ref-123"}}`
	req := httptest.NewRequest("POST", "/api/v1/payment/webhook", bytes.NewBufferString(body))
	req.Header.Set(handlers.SignatureHeader, "deadbeef")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code, "Expected status 401 for bad signature")
	assert.Empty(t, fakeSvc.event, "Service must not be called on bad signature")
}
