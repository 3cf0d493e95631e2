package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/linemk/e-store/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/e-store/internal/service"
	"github.com/linemk/e-store/internal/storage"
)

// RegisterRequest представляет структуру запроса регистрации с тегами валидации
type RegisterRequest struct {
	UserName        string `json:"userName" validate:"required,min=3"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// LoginRequest представляет структуру запроса аутентификации
type LoginRequest struct {
	UserName string `json:"userName" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginResponse представляет структуру ответа с JWT-токеном
type LoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

type ChangePasswordRequest struct {
	Password        string `json:"password" validate:"required,min=8"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

// RegisterHandler обрабатывает запрос POST /api/v1/register.
// Несовпадение password/confirmPassword и дубликаты аккаунта — 400.
func RegisterHandler(log *slog.Logger, authService service.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RegisterHandler"
		logger := log.With(slog.String("op", op))

		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeMessage(w, http.StatusBadRequest, "invalid request")
			return
		}

		// Валидация структуры запроса (включая confirmPassword == password)
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			writeMessage(w, http.StatusBadRequest, "validation error: "+err.Error())
			return
		}

		user, err := authService.Register(r.Context(), req.UserName, req.Email, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrEmailTaken), errors.Is(err, service.ErrUsernameTaken):
				writeMessage(w, http.StatusBadRequest, err.Error())
			default:
				logger.Error("registration failed", slog.Any("error", err))
				writeMessage(w, http.StatusInternalServerError, "error registering user")
			}
			return
		}

		writeJSON(w, http.StatusCreated, dataResponse{
			Message: "Account registered successfully",
			Data: map[string]interface{}{
				"id":       user.ID,
				"userName": user.Username,
				"email":    user.Email,
			},
		})
	}
}

// VerifyHandler обрабатывает запрос GET /api/v1/verify/user/{token}.
// Просроченный токен перевыпускается, ссылка уходит на почту повторно (201).
func VerifyHandler(log *slog.Logger, authService service.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.VerifyHandler"
		logger := log.With(slog.String("op", op))

		token := chi.URLParam(r, "token")
		if token == "" {
			writeMessage(w, http.StatusNotFound, "Token not found")
			return
		}

		err := authService.VerifyEmail(r.Context(), token)
		switch {
		case err == nil:
			writeMessage(w, http.StatusOK, "Account verified successfully")
		case errors.Is(err, service.ErrLinkResent):
			writeMessage(w, http.StatusCreated, "Session expired, link has been sent to email address")
		case errors.Is(err, service.ErrAlreadyVerified):
			writeMessage(w, http.StatusBadRequest, "Account is already verified")
		case errors.Is(err, service.ErrInvalidToken):
			writeMessage(w, http.StatusBadRequest, "Invalid verification token")
		case errors.Is(err, storage.ErrUserNotFound):
			writeMessage(w, http.StatusNotFound, "Account not found")
		default:
			logger.Error("verification failed", slog.Any("error", err))
			writeMessage(w, http.StatusInternalServerError, "error verifying user")
		}
	}
}

// LoginHandler обрабатывает запрос POST /api/v1/login.
func LoginHandler(log *slog.Logger, authService service.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.LoginHandler"
		logger := log.With(slog.String("op", op))

		var req LoginRequest
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

		token, err := authService.Login(r.Context(), req.UserName, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrUserNotFound):
				writeMessage(w, http.StatusNotFound, "Account not found")
			case errors.Is(err, service.ErrInvalidCredentials):
				writeMessage(w, http.StatusBadRequest, "Incorrect password")
			default:
				logger.Error("login failed", slog.Any("error", err))
				writeMessage(w, http.StatusInternalServerError, "error logging user in")
			}
			return
		}

		writeJSON(w, http.StatusOK, LoginResponse{Message: "User logged in successfully", Token: token})
	}
}

// ForgotPasswordHandler обрабатывает запрос POST /api/v1/forgot/password.
func ForgotPasswordHandler(log *slog.Logger, authService service.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ForgotPasswordHandler"
		logger := log.With(slog.String("op", op))

		var req ForgotPasswordRequest
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

		if err := authService.ForgotPassword(r.Context(), req.Email); err != nil {
			if errors.Is(err, storage.ErrUserNotFound) {
				writeMessage(w, http.StatusNotFound, "Account does not exist")
				return
			}
			logger.Error("forgot password failed", slog.Any("error", err))
			writeMessage(w, http.StatusInternalServerError, "error sending reset link")
			return
		}

		writeMessage(w, http.StatusCreated, "Link has been sent to email address")
	}
}

// ResetPasswordHandler обрабатывает запрос POST /api/v1/reset/password/{token}.
func ResetPasswordHandler(log *slog.Logger, authService service.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ResetPasswordHandler"
		logger := log.With(slog.String("op", op))

		token := chi.URLParam(r, "token")
		if token == "" {
			writeMessage(w, http.StatusNotFound, "Token not found")
			return
		}

		var req ResetPasswordRequest
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

		err := authService.ResetPassword(r.Context(), token, req.NewPassword)
		switch {
		case err == nil:
			writeMessage(w, http.StatusOK, "Password reset successfully")
		case errors.Is(err, service.ErrInvalidToken):
			writeMessage(w, http.StatusBadRequest, "Session expired, click on forgot password to continue")
		case errors.Is(err, storage.ErrUserNotFound):
			writeMessage(w, http.StatusNotFound, "User does not exist")
		default:
			logger.Error("reset password failed", slog.Any("error", err))
			writeMessage(w, http.StatusInternalServerError, "error resetting password")
		}
	}
}

// ChangePasswordHandler обрабатывает запрос POST /api/v1/change/password
// (только для аутентифицированных пользователей).
func ChangePasswordHandler(log *slog.Logger, authService service.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ChangePasswordHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			writeMessage(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req ChangePasswordRequest
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

		err := authService.ChangePassword(r.Context(), userID, req.Password, req.NewPassword)
		switch {
		case err == nil:
			writeMessage(w, http.StatusOK, "Password changed successfully")
		case errors.Is(err, service.ErrInvalidCredentials):
			writeMessage(w, http.StatusBadRequest, "Incorrect password")
		case errors.Is(err, storage.ErrUserNotFound):
			writeMessage(w, http.StatusNotFound, "Account not found")
		default:
			logger.Error("change password failed", slog.Any("error", err))
			writeMessage(w, http.StatusInternalServerError, "error updating user")
		}
	}
}
