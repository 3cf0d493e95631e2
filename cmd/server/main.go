package main

import (
	"context"

	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/linemk/e-store/internal/app"
	"github.com/linemk/e-store/internal/app/handlers"
	"github.com/linemk/e-store/internal/clients"
	"github.com/linemk/e-store/internal/config"
	"github.com/linemk/e-store/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/e-store/internal/lib/logger"
	"github.com/linemk/e-store/internal/lib/logger/handlers/urllog"
	"github.com/linemk/e-store/internal/service"
	"github.com/linemk/e-store/internal/storage"
)

func main() {
	// .env для локальной разработки, в остальных окружениях переменные заданы снаружи
	_ = godotenv.Load()

	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	// загружаем объект приложения, конфигом и подключением к БД
	application, err := app.NewApp(log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.DB.Close()

	router := chi.NewRouter()
	// настройка middleware
	router.Use(middleware.RequestID)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	// реализация слоев по работе с БД по каждому направлению
	userRepo := storage.NewUserRepository(application.DB)
	productRepo := storage.NewProductRepository(application.DB)
	cartRepo := storage.NewCartRepository(application.DB)
	checkoutRepo := storage.NewCheckoutRepository(application.DB)

	// внешние коллабораторы: почта, хостинг картинок, платёжный шлюз
	emailService := service.NewEmailService(cfg.SMTP)
	imageStore := clients.NewImageStore(cfg.ImageHost.BaseURL, cfg.ImageHost.APIKey)
	paymentGateway := clients.NewPaymentGateway(cfg.Payment.BaseURL, cfg.Payment.SecretKey)

	authService := service.NewAuthService(
		application.Logger, userRepo, emailService, cfg.PublicURL,
		time.Duration(cfg.JWT.TokenTTL)*time.Minute,
		time.Duration(cfg.JWT.MailLinkTTL)*time.Minute,
	)
	userService := service.NewUserService(application.Logger, userRepo)
	productService := service.NewProductService(application.Logger, productRepo, imageStore)
	cartService := service.NewCartService(application.Logger, application.DB, userRepo, productRepo, cartRepo)
	paymentService := service.NewPaymentService(application.Logger, checkoutRepo, paymentGateway, cfg.Payment.Currency)

	router.Route("/api/v1", func(r chi.Router) {
		// онбординг и аутентификация
		r.Post("/register", handlers.RegisterHandler(application.Logger, authService))
		r.Get("/verify/user/{token}", handlers.VerifyHandler(application.Logger, authService))
		r.Post("/login", handlers.LoginHandler(application.Logger, authService))
		r.Post("/forgot/password", handlers.ForgotPasswordHandler(application.Logger, authService))
		r.Post("/reset/password/{token}", handlers.ResetPasswordHandler(application.Logger, authService))
		r.Get("/users", handlers.ListUsersHandler(application.Logger, userService))

		// каталог товаров
		r.Post("/create/product", handlers.CreateProductHandler(application.Logger, productService))
		r.Get("/product/{productId}", handlers.GetProductHandler(application.Logger, productService))
		r.Get("/products", handlers.ListProductsHandler(application.Logger, productService))
		r.Put("/update/{productId}", handlers.UpdateProductHandler(application.Logger, productService))
		r.Delete("/delete/{productId}", handlers.DeleteProductHandler(application.Logger, productService))

		// webhook шлюза приходит без сессионного токена, подпись проверяется отдельно
		r.Post("/payment/webhook", handlers.PaymentWebhookHandler(application.Logger, paymentService, cfg.Payment.SecretKey))

		// эндпоинты, требующие сессионный токен
		r.Group(func(r chi.Router) {
			jwtMW := jwtmiddleware.NewJWTMiddleware()
			r.Use(jwtMW)
			r.Get("/user", handlers.GetUserHandler(application.Logger, userService))
			r.Post("/change/password", handlers.ChangePasswordHandler(application.Logger, authService))
			r.Post("/cart/{productId}", handlers.AddToCartHandler(application.Logger, cartService))
			r.Get("/cart", handlers.GetCartHandler(application.Logger, cartService))
			r.Post("/payment/initialize", handlers.InitializePaymentHandler(application.Logger, paymentService))
		})
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.Any("error", err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	stopSign := <-stop
	log.Info("received shutdown signal", slog.String("signal", stopSign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", slog.Any("error", err))
	}
	log.Info("server gracefully stopped")
}
