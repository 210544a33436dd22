package bootstrap

import (
	"context"
	"errors"

	"vehicle-rag-be/internal/config"
	"vehicle-rag-be/internal/controller"
	"vehicle-rag-be/internal/pkg/logger"
	"vehicle-rag-be/internal/repository/unitofwork"
	"vehicle-rag-be/internal/service"
	"vehicle-rag-be/pkg/events"

	pktNats "vehicle-rag-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"gorm.io/gorm"
)

type Container struct {
	Logger logger.ILogger

	// Controllers
	HealthController      controller.IHealthController
	RecordController      controller.IRecordController
	VehicleDataController controller.IVehicleDataController
	RagController         controller.IRagController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	retrieval *Retrieval
	bus       *events.Bus
	natsPub   *pktNats.Publisher
}

func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config, sysLogger logger.ILogger) (*Container, error) {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)

	// 2. Event Bus
	bus := events.NewBus(cfg.Events.Topic, watermill.NewStdLogger(false, false))
	publishers := events.MultiPublisher{bus}

	var natsPub *pktNats.Publisher
	if cfg.Events.NatsURL != "" {
		pub, err := pktNats.NewPublisher(ctx, cfg.Events.NatsURL)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to connect to NATS publisher, events stay in process", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			natsPub = pub
			publishers = append(publishers, pub)
		}
	}

	// 3. Services
	retrieval, err := NewRetrieval(ctx, cfg, db, publishers, sysLogger)
	if err != nil {
		bus.Close()
		if natsPub != nil {
			natsPub.Close()
		}
		return nil, err
	}

	recordService := service.NewRecordService(uowFactory, cfg.Records)
	vehicleDataService := service.NewVehicleDataService(retrieval.VehicleData)
	consumerService := service.NewConsumerService(bus, sysLogger)

	// 4. Controllers
	return &Container{
		Logger:                sysLogger,
		HealthController:      controller.NewHealthController(cfg.App.Version, cfg.App.Environment, consumerService),
		RecordController:      controller.NewRecordController(recordService),
		VehicleDataController: controller.NewVehicleDataController(vehicleDataService),
		RagController:         controller.NewRagController(retrieval.RagService),
		ConsumerService:       consumerService,
		retrieval:             retrieval,
		bus:                   bus,
		natsPub:               natsPub,
	}, nil
}

// Close releases the vector store and the event transports.
func (c *Container) Close() error {
	var errs []error
	if err := c.retrieval.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := c.bus.Close(); err != nil {
		errs = append(errs, err)
	}
	if c.natsPub != nil {
		c.natsPub.Close()
	}
	return errors.Join(errs...)
}
