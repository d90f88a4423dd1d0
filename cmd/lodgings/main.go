package main

import (
	"lodgebook/internal/lodgings/handler"
	"lodgebook/internal/lodgings/repository"
	"lodgebook/internal/lodgings/service"
	"lodgebook/pkg/app"
	"lodgebook/pkg/config"
)

const ServiceName = "lodgings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.LogConfiguration()
	cfg.SetMongo()

	cfg.Log.Info("Starting Lodgings service")
	lodgingService := initServices(cfg)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewLodgingHandler(lodgingService, cfg))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.LodgingService {
	lodgingRepo := repository.NewMongoLodgingRepository(cfg)
	lodgingService := service.NewLodgingService(lodgingRepo, cfg)

	cfg.Log.Info("Lodging service initialized", "database", cfg.MongoDatabaseName)
	return lodgingService
}
