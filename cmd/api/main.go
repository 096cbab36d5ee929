package main

import (
	"context"
	"os"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/infra/db"
	"storefront/internal/infra/events"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/logger"
	"storefront/internal/server"
	"storefront/internal/usecase"
	"storefront/internal/validator"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	//.envは無くてもよい（本番は環境変数）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	lg := logger.Setup(cfg.GoEnv, cfg.LogLevel)

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		lg.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("db connect failed")
	}
	if err := db.Migrate(gormDB); err != nil {
		lg.Fatal().Err(err).Msg("db migrate failed")
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	rtRepo := infraRepo.NewRefreshTokenGormRepository(gormDB)
	addressRepo := infraRepo.NewAddressGormRepository(gormDB)
	phoneRepo := infraRepo.NewPhoneNumberGormRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	imageRepo := infraRepo.NewProductImageGormRepository(gormDB)
	promotionRepo := infraRepo.NewPromotionGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	paymentRepo := infraRepo.NewPaymentGormRepository(gormDB)
	transporterRepo := infraRepo.NewTransporterGormRepository(gormDB)
	shipmentRepo := infraRepo.NewShipmentGormRepository(gormDB)
	reviewRepo := infraRepo.NewReviewGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)

	txm := infraRepo.NewTxManagerGorm(gormDB, cfg.TxTimeout)

	//イベント配信。RABBIT_URLが無ければログのみ
	var publisher usecase.EventPublisher = events.NewLogPublisher()
	if cfg.RabbitURL != "" {
		rp, err := events.NewRabbitPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			lg.Fatal().Err(err).Msg("rabbitmq connect failed")
		}
		defer func() { _ = rp.Close() }()
		publisher = rp
	}

	//Usecase生成
	authUC := usecase.NewAuthUsecase(cfg, txm, userRepo, rtRepo, validator.NewAuthValidator(userRepo))
	adminUserUC := usecase.NewAdminUserUsecase(txm, userRepo)
	addressUC := usecase.NewAddressUsecase(addressRepo, phoneRepo)
	categoryUC := usecase.NewCategoryUsecase(categoryRepo)
	productUC := usecase.NewProductUsecase(productRepo, imageRepo, promotionRepo, categoryUC)
	inventoryUC := usecase.NewInventoryUsecase(txm, inventoryRepo, publisher)
	promotionUC := usecase.NewPromotionUsecase(promotionRepo, productRepo)
	cartUC := usecase.NewCartUsecase(txm, cartRepo, cartRepo)
	checkoutUC := usecase.NewCheckoutUsecase(txm, cartRepo, publisher)
	orderUC := usecase.NewOrderUsecase(txm, orderRepo, orderRepo, paymentRepo, shipmentRepo)
	adminOrderUC := usecase.NewAdminOrderUsecase(txm, orderRepo, orderRepo, paymentRepo, publisher)
	auditUC := usecase.NewAuditLogUsecase(auditRepo)
	shipmentUC := usecase.NewShipmentUsecase(txm, transporterRepo, shipmentRepo, publisher, cfg.ShipmentRequiresPayment)
	reviewUC := usecase.NewReviewUsecase(reviewRepo, productRepo)

	//Handler生成
	handlers := server.Handlers{
		Auth:         handler.NewAuthHandler(cfg, authUC),
		AdminUser:    handler.NewAdminUserHandler(authUC, adminUserUC),
		Address:      handler.NewAddressHandler(addressUC),
		Product:      handler.NewProductHandler(productUC, inventoryUC, promotionUC),
		AdminProduct: handler.NewAdminProductHandler(productUC, inventoryUC),
		Category:     handler.NewCategoryHandler(categoryUC),
		Promotion:    handler.NewPromotionHandler(promotionUC),
		Cart:         handler.NewCartHandler(cartUC),
		Checkout:     handler.NewCheckoutHandler(checkoutUC),
		Order:        handler.NewOrderHandler(orderUC, checkoutUC),
		AdminOrder:   handler.NewAdminOrderHandler(adminOrderUC, auditUC),
		Shipment:     handler.NewShipmentHandler(shipmentUC),
		Review:       handler.NewReviewHandler(reviewUC),
	}

	e := server.New(cfg, lg)
	server.RegisterRoutes(e, cfg, userRepo, handlers)

	//Server起動
	if err := server.Start(context.Background(), e, cfg, lg); err != nil {
		lg.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
