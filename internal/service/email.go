package service

import (
	"fmt"
	"net/smtp"

	"github.com/linemk/e-store/internal/config"
)

// EmailService отправляет транзакционные письма (верификация, сброс пароля).
type EmailService interface {
	Send(to, subject, htmlBody string) error
}

type smtpEmail struct {
	cfg config.SMTPConfig
}

func NewEmailService(cfg config.SMTPConfig) EmailService {
	return &smtpEmail{cfg: cfg}
}

func (s *smtpEmail) Send(to, subject, htmlBody string) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	msg := "From: " + s.cfg.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\nContent-Type: text/html; charset=utf-8\r\n\r\n" +
		htmlBody

	// локальный relay без аутентификации (MailHog и т.п.)
	return smtp.SendMail(addr, nil, s.cfg.From, []string{to}, []byte(msg))
}

// VerifyMailBody формирует письмо со ссылкой подтверждения аккаунта.
func VerifyMailBody(link, username string) string {
	return "<p>Привет, " + username + "!</p>" +
		"<p>Для подтверждения аккаунта перейди по ссылке:</p>" +
		"<p><a href=\"" + link + "\">" + link + "</a></p>" +
		"<p>Ссылка действует 5 минут.</p>"
}

// ResetMailBody формирует письмо со ссылкой сброса пароля.
func ResetMailBody(link, username string) string {
	return "<p>Привет, " + username + "!</p>" +
		"<p>Для сброса пароля перейди по ссылке:</p>" +
		"<p><a href=\"" + link + "\">" + link + "</a></p>" +
		"<p>Если ты не запрашивал сброс — просто проигнорируй это письмо.</p>"
}
