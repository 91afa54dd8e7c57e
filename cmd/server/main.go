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
	"github.com/linemk/ecom-shop/internal/app"
	"github.com/linemk/ecom-shop/internal/app/handlers"
	"github.com/linemk/ecom-shop/internal/config"
	"github.com/linemk/ecom-shop/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/ecom-shop/internal/lib/logger"
	"github.com/linemk/ecom-shop/internal/lib/logger/handlers/urllog"
	"github.com/linemk/ecom-shop/internal/lib/mail"
	"github.com/linemk/ecom-shop/internal/payment"
	"github.com/linemk/ecom-shop/internal/service"
	"github.com/linemk/ecom-shop/internal/storage"
	"github.com/pkg/errors"
)

func main() {
	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	// загружаем объект приложения, конфигом и подключением к БД и redis
	application, err := app.NewApp(log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.DB.Close()
	defer application.Redis.Close()

	router := chi.NewRouter()
	// настройка middleware
	router.Use(middleware.RequestID)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	// реализация слоев по работе с БД по каждому направлению
	userRepo := storage.NewUserRepository(application.DB)
	addressRepo := storage.NewAddressRepository(application.DB)
	categoryRepo := storage.NewCategoryRepository(application.DB)
	productRepo := storage.NewProductRepository(application.DB)
	cartRepo := storage.NewCartRepository(application.DB)
	orderRepo := storage.NewOrderRepository(application.DB)
	couponRepo := storage.NewCouponRepository(application.DB)
	reviewRepo := storage.NewReviewRepository(application.DB)
	wishlistRepo := storage.NewWishlistRepository(application.DB)
	otpRepo := storage.NewOTPRepository(application.Redis)

	mailSender := mail.NewSender(mail.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	gatewayClient := payment.NewClient(cfg.Payments.BaseURL, cfg.Payments.KeyID, cfg.Payments.KeySecret, cfg.Payments.Timeout)
	// секрет шлюза читается через замыкание и не попадает в зависимости сервисов
	gatewaySecret := func() string { return cfg.Payments.KeySecret }

	authService := service.NewAuthService(application.Logger, userRepo, otpRepo, mailSender,
		time.Duration(cfg.JWT.TokenTTL)*time.Minute, time.Duration(cfg.OTP.TTL)*time.Minute)
	productService := service.NewProductService(application.Logger, application.DB, productRepo)
	categoryService := service.NewCategoryService(application.Logger, categoryRepo)
	couponService := service.NewCouponService(application.Logger, couponRepo)
	cartService := service.NewCartService(application.Logger, cartRepo, productRepo)
	orderService := service.NewOrderService(application.Logger, application.DB, cartRepo, orderRepo,
		addressRepo, productRepo, couponRepo, gatewaySecret)
	orderAdminService := service.NewOrderAdminService(application.Logger, application.DB, orderRepo)
	paymentService := service.NewPaymentService(application.Logger, gatewayClient, gatewaySecret)
	addressService := service.NewAddressService(application.Logger, addressRepo)
	reviewService := service.NewReviewService(application.Logger, reviewRepo, productRepo)
	wishlistService := service.NewWishlistService(application.Logger, wishlistRepo, productRepo)

	// публичные эндпоинты: аутентификация и каталог
	router.Post("/api/auth/register", handlers.RegisterHandler(application.Logger, authService))
	router.Post("/api/auth/verify-otp", handlers.VerifyOTPHandler(application.Logger, authService))
	router.Post("/api/auth/login", handlers.LoginHandler(application.Logger, authService))
	router.Get("/api/categories", handlers.ListCategoriesHandler(application.Logger, categoryService))
	router.Get("/api/categories/{id}", handlers.GetCategoryHandler(application.Logger, categoryService))
	router.Get("/api/products", handlers.ListProductsHandler(application.Logger, productService))
	router.Get("/api/products/{id}", handlers.GetProductHandler(application.Logger, productService))
	router.Get("/api/products/{id}/reviews", handlers.ListReviewsHandler(application.Logger, reviewService))

	router.Group(func(r chi.Router) {
		jwtMW := jwtmiddleware.NewJWTMiddleware()
		r.Use(jwtMW)

		// корзина
		r.Get("/api/cart", handlers.GetCartHandler(application.Logger, cartService))
		r.Post("/api/cart", handlers.AddCartItemHandler(application.Logger, cartService))
		r.Put("/api/cart", handlers.UpdateCartItemHandler(application.Logger, cartService))
		r.Delete("/api/cart/{productID}/{variantID}", handlers.RemoveCartItemHandler(application.Logger, cartService))

		// заказы
		r.Post("/api/orders/checkout", handlers.CheckoutHandler(application.Logger, orderService))
		r.Post("/api/orders/checkout-direct", handlers.DirectCheckoutHandler(application.Logger, orderService))
		r.Get("/api/orders", handlers.ListOrdersHandler(application.Logger, orderService))
		r.Get("/api/orders/{id}", handlers.GetOrderHandler(application.Logger, orderService))
		r.Post("/api/orders/{id}/cancel", handlers.CancelOrderHandler(application.Logger, orderService))

		// платёжный шлюз
		r.Post("/api/payments/order", handlers.CreateGatewayOrderHandler(application.Logger, paymentService))
		r.Post("/api/payments/verify", handlers.VerifyPaymentHandler(application.Logger, paymentService))

		// адреса, отзывы, список желаний
		r.Get("/api/addresses", handlers.ListAddressesHandler(application.Logger, addressService))
		r.Post("/api/addresses", handlers.CreateAddressHandler(application.Logger, addressService))
		r.Delete("/api/addresses/{id}", handlers.DeleteAddressHandler(application.Logger, addressService))
		r.Post("/api/products/{id}/reviews", handlers.AddReviewHandler(application.Logger, reviewService))
		r.Get("/api/wishlist", handlers.ListWishlistHandler(application.Logger, wishlistService))
		r.Post("/api/wishlist/{productID}", handlers.AddWishlistHandler(application.Logger, wishlistService))
		r.Delete("/api/wishlist/{productID}", handlers.RemoveWishlistHandler(application.Logger, wishlistService))

		// административные операции; роль проверяется в сервисах
		r.Post("/api/admin/categories", handlers.CreateCategoryHandler(application.Logger, categoryService))
		r.Post("/api/admin/coupons", handlers.CreateCouponHandler(application.Logger, couponService))
		r.Get("/api/admin/coupons", handlers.ListCouponsHandler(application.Logger, couponService))
		r.Post("/api/admin/products", handlers.CreateProductHandler(application.Logger, productService))
		r.Put("/api/admin/variants", handlers.UpdateVariantHandler(application.Logger, productService))
		r.Put("/api/admin/orders/{id}/status", handlers.UpdateOrderStatusHandler(application.Logger, orderAdminService))
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
