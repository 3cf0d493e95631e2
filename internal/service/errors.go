package service

import "errors"

// Ошибки уровня сервиса: транспортный слой по ним выбирает статус ответа.
var (
	ErrEmailTaken         = errors.New("account with this email already exists")
	ErrUsernameTaken      = errors.New("account with this username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyVerified    = errors.New("account is already verified")
	ErrInvalidToken       = errors.New("token is invalid or expired")
	// ErrLinkResent — не ошибка в строгом смысле: verify-токен просрочен,
	// новая ссылка уже отправлена на почту.
	ErrLinkResent         = errors.New("verification link has been re-sent")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrUnknownEvent       = errors.New("unknown webhook event")
)
