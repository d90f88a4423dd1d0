package main

import (
	"lodgebook/internal/promotions/handler"
	"lodgebook/internal/promotions/repository"
	"lodgebook/internal/promotions/service"
	"lodgebook/pkg/app"
	"lodgebook/pkg/config"
)

const ServiceName = "promotions"

func main() {
	cfg := config.Load(ServiceName)
	cfg.LogConfiguration()
	cfg.SetMongo()

	cfg.Log.Info("Starting Promotions service")
	promotionService := initServices(cfg)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewPromotionHandler(promotionService, cfg))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.PromotionService {
	promotionRepo := repository.NewMongoPromotionRepository(cfg)
	promotionService := service.NewPromotionService(promotionRepo, cfg)

	cfg.Log.Info("Promotion service initialized", "database", cfg.MongoDatabaseName)
	return promotionService
}
