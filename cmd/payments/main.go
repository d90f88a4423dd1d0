package main

import (
	"context"
	"errors"

	lodgingrepository "lodgebook/internal/lodgings/repository"
	lodgingservice "lodgebook/internal/lodgings/service"
	"lodgebook/internal/payments/handler"
	"lodgebook/internal/payments/repository"
	"lodgebook/internal/payments/service"
	promotionrepository "lodgebook/internal/promotions/repository"
	promotionservice "lodgebook/internal/promotions/service"
	"lodgebook/internal/reservations/availability"
	reservationrepository "lodgebook/internal/reservations/repository"
	reservationservice "lodgebook/internal/reservations/service"
	"lodgebook/internal/reservations/validator"
	"lodgebook/pkg/app"
	"lodgebook/pkg/config"
	mongotx "lodgebook/pkg/db/mongo"
	"lodgebook/pkg/events"
	events_config "lodgebook/pkg/events/config"
)

const ServiceName = "payments"

const consumerGroupID = "payments-service"

func main() {
	cfg := config.Load(ServiceName)
	cfg.LogConfiguration()
	cfg.SetMongo()

	cfg.Log.Info("Starting Payments service")
	paymentService := initServices(cfg)

	startConsumer(cfg, paymentService)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewPaymentHandler(paymentService, cfg))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.PaymentService {
	eventsCfg := events_config.Load()

	var publisher events.Publisher
	producer, err := events.NewProducer(eventsCfg, events.TopicPaymentEvents, events.TopicNotificationDLQ)
	if err != nil {
		cfg.Log.Warn("Event publishing disabled", "error", err)
	} else {
		publisher = producer
	}
	notifier := events.NewNotifier(publisher, cfg.Log, ServiceName)

	reservationRepo := reservationrepository.NewMongoReservationRepository(cfg)
	lockRepo := reservationrepository.NewReservationLockRepository(cfg)
	rangeStore := availability.NewMongoRangeStore(cfg)
	index := availability.NewIndex(rangeStore, lockRepo, mongotx.NewTransactionManager(cfg.Client.Mongo), cfg)

	lodgingService := lodgingservice.NewLodgingService(lodgingrepository.NewMongoLodgingRepository(cfg), cfg)
	promotionService := promotionservice.NewPromotionService(promotionrepository.NewMongoPromotionRepository(cfg), cfg)

	reservationService := reservationservice.NewReservationService(
		reservationRepo,
		index,
		lodgingService,
		promotionService,
		validator.NewBookingValidator(cfg.Log),
		notifier,
		cfg,
	)

	paymentService := service.NewPaymentService(
		repository.NewMongoPaymentRepository(cfg),
		reservationService,
		notifier,
		cfg,
	)

	cfg.Log.Info("Payment service initialized", "database", cfg.MongoDatabaseName)
	return paymentService
}

// startConsumer wires the payment-events topic into the reconciler. The
// service stays usable without a broker; the webhook endpoint still works.
func startConsumer(cfg *config.Config, paymentService service.PaymentService) {
	eventsCfg := events_config.Load()

	consumer, err := events.NewConsumer(
		eventsCfg,
		cfg.Log,
		events.TopicPaymentEvents,
		consumerGroupID,
		events.TopicNotificationDLQ,
		paymentEventHandler(cfg, paymentService),
	)
	if err != nil {
		cfg.Log.Warn("Payment event consumption disabled", "error", err)
		return
	}

	go func() {
		if err := consumer.Start(context.Background()); err != nil && !errors.Is(err, context.Canceled) {
			cfg.Log.Error("Payment event consumer stopped", "error", err)
		}
	}()
}

func paymentEventHandler(cfg *config.Config, paymentService service.PaymentService) events.MessageHandler {
	return func(ctx context.Context, msg events.Message) error {
		var event service.PaymentEvent
		if err := msg.DecodeValue(&event); err != nil {
			cfg.Log.Error("Failed to decode payment event", "event_id", msg.GetEventID(), "error", err)
			return err
		}
		return paymentService.OnPaymentEvent(ctx, &event)
	}
}
