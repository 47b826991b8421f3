package main

import (
	"log"

	"shop/internal/config"
	"shop/internal/domain/model"
	"shop/internal/handler"
	"shop/internal/infra/db"
	infraRepo "shop/internal/infra/repository"
	"shop/internal/logger"
	"shop/internal/payment"
	"shop/internal/server"
	"shop/internal/usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .envは無くてもいい（本番は環境変数で渡す）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	zlog, err := logger.New(cfg.GoEnv)
	if err != nil {
		log.Fatal(err)
	}
	defer zlog.Sync()

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		zlog.Fatal("db connect failed", zap.Error(err))
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.Cart{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.OrderStatusEvent{},
	); err != nil {
		zlog.Fatal("migrate failed", zap.Error(err))
	}

	//Repository
	txManager := infraRepo.NewTxManagerGorm(gormDB)
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)

	//決済プロセッサ
	provider, err := payment.NewStripeProvider(cfg.StripeAPIKey, cfg.PaymentTimeout)
	if err != nil {
		zlog.Fatal("payment provider init failed", zap.Error(err))
	}

	//Usecase
	authUC := usecase.NewAuthUsecase(userRepo, cfg.JWTSecret)
	productUC := usecase.NewProductUsecase(productRepo)
	cartUC := usecase.NewCartUsecase(txManager)
	orderUC := usecase.NewOrderUsecase(txManager)
	checkoutUC := usecase.NewCheckoutUsecase(txManager, orderUC, provider, zlog)
	adminOrderUC := usecase.NewAdminOrderUsecase(txManager)
	webhookUC := usecase.NewWebhookUsecase(txManager, zlog)

	//Handler
	handlers := server.Handlers{
		Auth:       handler.NewAuthHandler(authUC),
		Product:    handler.NewProductHandler(productUC),
		Cart:       handler.NewCartHandler(cartUC),
		Checkout:   handler.NewCheckoutHandler(checkoutUC),
		Order:      handler.NewOrderHandler(orderUC),
		AdminOrder: handler.NewAdminOrderHandler(adminOrderUC),
		Webhook:    handler.NewWebhookHandler(webhookUC, cfg.StripeWebhookSecret, zlog),
	}

	e := server.New(cfg, zlog, handlers)
	if err := server.Start(e, cfg.Port); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}
