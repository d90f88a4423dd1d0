package main

import (
	"context"
	"time"

	lodgingrepository "lodgebook/internal/lodgings/repository"
	lodgingservice "lodgebook/internal/lodgings/service"
	promotionrepository "lodgebook/internal/promotions/repository"
	promotionservice "lodgebook/internal/promotions/service"
	"lodgebook/internal/reservations/availability"
	"lodgebook/internal/reservations/handler"
	"lodgebook/internal/reservations/repository"
	"lodgebook/internal/reservations/service"
	"lodgebook/internal/reservations/validator"
	"lodgebook/pkg/app"
	"lodgebook/pkg/config"
	mongotx "lodgebook/pkg/db/mongo"
	"lodgebook/pkg/events"
	events_config "lodgebook/pkg/events/config"
)

const ServiceName = "reservations"

// Confirmed stays whose check-out has passed get swept to COMPLETED.
const sweepInterval = 1 * time.Hour

func main() {
	cfg := config.Load(ServiceName)
	cfg.LogConfiguration()
	cfg.SetMongo()

	cfg.Log.Info("Starting Reservations service")
	reservationService := initServices(cfg)

	go runCompletionSweeper(cfg, reservationService)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewReservationHandler(reservationService, cfg))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.ReservationService {
	reservationRepo := repository.NewMongoReservationRepository(cfg)
	lockRepo := repository.NewReservationLockRepository(cfg)
	rangeStore := availability.NewMongoRangeStore(cfg)
	index := availability.NewIndex(rangeStore, lockRepo, mongotx.NewTransactionManager(cfg.Client.Mongo), cfg)

	lodgingService := lodgingservice.NewLodgingService(lodgingrepository.NewMongoLodgingRepository(cfg), cfg)
	promotionService := promotionservice.NewPromotionService(promotionrepository.NewMongoPromotionRepository(cfg), cfg)

	reservationService := service.NewReservationService(
		reservationRepo,
		index,
		lodgingService,
		promotionService,
		validator.NewBookingValidator(cfg.Log),
		newNotifier(cfg),
		cfg,
	)

	cfg.Log.Info("Reservation service initialized", "database", cfg.MongoDatabaseName)
	return reservationService
}

func newNotifier(cfg *config.Config) *events.Notifier {
	eventsCfg := events_config.Load()

	var publisher events.Publisher
	producer, err := events.NewProducer(eventsCfg, events.TopicReservationEvents, events.TopicNotificationDLQ)
	if err != nil {
		cfg.Log.Warn("Event publishing disabled", "error", err)
	} else {
		publisher = producer
	}
	return events.NewNotifier(publisher, cfg.Log, ServiceName)
}

func runCompletionSweeper(cfg *config.Config, svc service.ReservationService) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
		if _, err := svc.CompleteElapsed(ctx, time.Now()); err != nil {
			cfg.Log.Error("Completion sweep failed", "error", err)
		}
		cancel()
	}
}
