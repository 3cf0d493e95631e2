package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/linemk/e-store/internal/domain/models"
	security "github.com/linemk/e-store/internal/jwt-new"
	"github.com/linemk/e-store/internal/storage"
)

// AuthService отвечает за жизненный цикл аккаунта: регистрацию,
// подтверждение почты, вход и операции с паролем.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	VerifyEmail(ctx context.Context, token string) error
	Login(ctx context.Context, username, password string) (string, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error
}

type authService struct {
	log         *slog.Logger
	userRepo    storage.UserStorage
	email       EmailService
	publicURL   string
	tokenTTL    time.Duration // сессионный токен
	mailLinkTTL time.Duration // токены из писем
}

func NewAuthService(log *slog.Logger, userRepo storage.UserStorage, email EmailService, publicURL string, tokenTTL, mailLinkTTL time.Duration) AuthService {
	return &authService{
		log:         log,
		userRepo:    userRepo,
		email:       email,
		publicURL:   publicURL,
		tokenTTL:    tokenTTL,
		mailLinkTTL: mailLinkTTL,
	}
}

// Register создаёт аккаунт: проверяет уникальность email и имени,
// хэширует пароль через bcrypt и отправляет письмо со ссылкой подтверждения.
// Неудачная отправка письма аккаунт не откатывает: ссылку можно
// перевыпустить через /verify с просроченным токеном.
func (a *authService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	const op = "service.AuthService.Register"
	logger := a.log.With(slog.String("op", op), slog.String("username", username))
	logger.Info("registering user")

	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))

	// Проверка дублей до вставки, чтобы вернуть осмысленное сообщение
	if _, err := a.userRepo.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, storage.ErrUserNotFound) {
		logger.Error("failed to check email", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to check email: %w", op, err)
	}
	if _, err := a.userRepo.GetUserByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, storage.ErrUserNotFound) {
		logger.Error("failed to check username", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to check username: %w", op, err)
	}

	// Хеширование пароля с помощью bcrypt (автоматически добавляет соль)
	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("failed to hash password", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	user, err := a.userRepo.CreateUser(ctx, &models.User{
		Username: username,
		Email:    email,
		PassHash: passHash,
	})
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			return nil, ErrEmailTaken
		}
		logger.Error("failed to create user", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create user: %w", op, err)
	}

	if err := a.sendVerifyMail(user); err != nil {
		// письмо не критично: аккаунт уже создан, ссылку перевыпустим
		logger.Warn("failed to send verification mail", slog.Any("error", err))
	}

	logger.Info("user registered", slog.Int64("userID", user.ID))
	return user, nil
}

func (a *authService) sendVerifyMail(user *models.User) error {
	token, err := security.NewToken(user.ID, security.PurposeVerify, a.mailLinkTTL)
	if err != nil {
		return err
	}
	link := fmt.Sprintf("%s/api/v1/verify/user/%s", a.publicURL, url.PathEscape(token))
	return a.email.Send(user.Email, "ACCOUNT VERIFICATION", VerifyMailBody(link, user.Username))
}

// VerifyEmail подтверждает аккаунт по токену из письма.
// Повторное подтверждение возвращает ErrAlreadyVerified.
// Просроченный или битый токен: из него достаётся userID без проверки
// подписи, выпускается новый токен и письмо отправляется заново (ErrLinkResent).
func (a *authService) VerifyEmail(ctx context.Context, token string) error {
	const op = "service.AuthService.VerifyEmail"
	logger := a.log.With(slog.String("op", op))

	userID, err := security.ParseToken(token, security.PurposeVerify)
	if err != nil {
		logger.Info("verification token invalid or expired, re-issuing")

		userID, err = security.DecodeUserID(token)
		if err != nil {
			return ErrInvalidToken
		}
		user, err := a.userRepo.GetUserByID(ctx, userID)
		if err != nil {
			if errors.Is(err, storage.ErrUserNotFound) {
				return storage.ErrUserNotFound
			}
			return fmt.Errorf("%s: failed to get user: %w", op, err)
		}
		if user.IsVerified {
			return ErrAlreadyVerified
		}
		if err := a.sendVerifyMail(user); err != nil {
			logger.Error("failed to re-send verification mail", slog.Any("error", err))
			return fmt.Errorf("%s: failed to re-send mail: %w", op, err)
		}
		return ErrLinkResent
	}

	user, err := a.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return storage.ErrUserNotFound
		}
		return fmt.Errorf("%s: failed to get user: %w", op, err)
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}

	if err := a.userRepo.SetVerified(ctx, user.ID); err != nil {
		logger.Error("failed to mark user verified", slog.Any("error", err))
		return fmt.Errorf("%s: failed to mark verified: %w", op, err)
	}

	logger.Info("user verified", slog.Int64("userID", user.ID))
	return nil
}

// Login проверяет пару имя/пароль и выдаёт сессионный JWT-токен.
func (a *authService) Login(ctx context.Context, username, password string) (string, error) {
	const op = "service.AuthService.Login"
	logger := a.log.With(slog.String("op", op), slog.String("username", username))
	logger.Info("checking user")

	user, err := a.userRepo.GetUserByUsername(ctx, strings.ToLower(username))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return "", storage.ErrUserNotFound
		}
		logger.Error("failed to get user", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		logger.Warn("invalid password")
		return "", ErrInvalidCredentials
	}

	token, err := security.NewToken(user.ID, security.PurposeSession, a.tokenTTL)
	if err != nil {
		logger.Error("failed to generate token", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to generate token: %w", op, err)
	}

	logger.Info("user logged in successfully", slog.Int64("userID", user.ID))
	return token, nil
}

// ForgotPassword отправляет письмо со ссылкой сброса пароля.
func (a *authService) ForgotPassword(ctx context.Context, email string) error {
	const op = "service.AuthService.ForgotPassword"
	logger := a.log.With(slog.String("op", op))

	user, err := a.userRepo.GetUserByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return storage.ErrUserNotFound
		}
		logger.Error("failed to get user", slog.Any("error", err))
		return fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	token, err := security.NewToken(user.ID, security.PurposeReset, a.mailLinkTTL)
	if err != nil {
		logger.Error("failed to generate reset token", slog.Any("error", err))
		return fmt.Errorf("%s: failed to generate token: %w", op, err)
	}
	link := fmt.Sprintf("%s/resetpassword/%s", a.publicURL, url.PathEscape(token))

	if err := a.email.Send(user.Email, "RESET PASSWORD", ResetMailBody(link, user.Username)); err != nil {
		logger.Error("failed to send reset mail", slog.Any("error", err))
		return fmt.Errorf("%s: failed to send mail: %w", op, err)
	}

	logger.Info("reset link sent", slog.Int64("userID", user.ID))
	return nil
}

// ResetPassword устанавливает новый пароль по токену из письма.
func (a *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	const op = "service.AuthService.ResetPassword"
	logger := a.log.With(slog.String("op", op))

	userID, err := security.ParseToken(token, security.PurposeReset)
	if err != nil {
		return ErrInvalidToken
	}

	user, err := a.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return storage.ErrUserNotFound
		}
		return fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("failed to hash password", slog.Any("error", err))
		return fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	if err := a.userRepo.UpdatePassword(ctx, user.ID, passHash); err != nil {
		logger.Error("failed to update password", slog.Any("error", err))
		return fmt.Errorf("%s: failed to update password: %w", op, err)
	}

	logger.Info("password reset", slog.Int64("userID", user.ID))
	return nil
}

// ChangePassword меняет пароль аутентифицированного пользователя
// после проверки текущего пароля.
func (a *authService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	const op = "service.AuthService.ChangePassword"
	logger := a.log.With(slog.String("op", op), slog.Int64("userID", userID))

	user, err := a.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return storage.ErrUserNotFound
		}
		return fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(currentPassword)); err != nil {
		logger.Warn("current password mismatch")
		return ErrInvalidCredentials
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("failed to hash password", slog.Any("error", err))
		return fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	if err := a.userRepo.UpdatePassword(ctx, user.ID, passHash); err != nil {
		logger.Error("failed to update password", slog.Any("error", err))
		return fmt.Errorf("%s: failed to update password: %w", op, err)
	}

	logger.Info("password changed")
	return nil
}
