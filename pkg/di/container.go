package di

import (
	"context"
	"time"

	"gorm.io/gorm"

	"face-service/application/serviceimpl"
	"face-service/domain/repositories"
	"face-service/domain/services"
	"face-service/infrastructure/faceapi"
	"face-service/infrastructure/objectstore"
	"face-service/infrastructure/postgres"
	"face-service/infrastructure/redis"
	"face-service/infrastructure/storage"
	"face-service/interfaces/api/handlers"
	"face-service/pkg/config"
	"face-service/pkg/logger"
	"face-service/pkg/scheduler"
)

type Container struct {
	// Configuration
	Config *config.Config

	// Infrastructure
	DB             *gorm.DB
	RedisClient    *redis.Client
	ObjectStorage  storage.ObjectStorage
	EventScheduler scheduler.EventScheduler

	// Repositories
	EmbeddingRepository   repositories.EmbeddingRepository
	ModelRepository       repositories.ModelRepository
	EnrollmentRepository  repositories.EnrollmentRepository
	TrainingRunRepository repositories.TrainingRunRepository

	// Services
	EnrollmentService  services.EnrollmentService
	TrainingService    services.TrainingService
	RecognitionService services.RecognitionService

	// Clients
	FaceClient *faceapi.FaceClient
}

func NewContainer() *Container {
	return &Container{}
}

func (c *Container) Initialize() error {
	if err := c.initConfig(); err != nil {
		return err
	}

	if err := c.initInfrastructure(); err != nil {
		return err
	}

	if err := c.initRepositories(); err != nil {
		return err
	}

	if err := c.initServices(); err != nil {
		return err
	}

	if err := c.initScheduler(); err != nil {
		return err
	}

	return nil
}

func (c *Container) initConfig() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	c.Config = cfg
	logger.Startup("config_loaded", "Configuration loaded", nil)
	return nil
}

func (c *Container) initInfrastructure() error {
	// Initialize Database
	dbConfig := postgres.DatabaseConfig{
		Host:     c.Config.Database.Host,
		Port:     c.Config.Database.Port,
		User:     c.Config.Database.User,
		Password: c.Config.Database.Password,
		DBName:   c.Config.Database.DBName,
		SSLMode:  c.Config.Database.SSLMode,
	}

	db, err := postgres.NewDatabase(dbConfig)
	if err != nil {
		return err
	}
	c.DB = db
	logger.Startup("db_connected", "Database connected", nil)

	// Run migrations
	if err := postgres.Migrate(db); err != nil {
		return err
	}
	logger.Startup("db_migrated", "Database migrations applied", nil)

	// Redis is optional: without it, training locks and model version
	// stamps stay process-local.
	redisClient, err := redis.NewClient(&c.Config.Redis)
	if err != nil {
		logger.StartupWarn("redis_unavailable", "Running without redis", map[string]interface{}{"error": err.Error()})
	} else {
		c.RedisClient = redisClient
		logger.Startup("redis_connected", "Redis connected", nil)
	}

	// Object storage backend
	switch c.Config.Storage.Backend {
	case "local":
		local, err := storage.NewLocalStorage(c.Config.Storage.LocalRoot)
		if err != nil {
			return err
		}
		c.ObjectStorage = local
		logger.Startup("storage_init", "Using local object storage", map[string]interface{}{"root": c.Config.Storage.LocalRoot})
	default:
		c.ObjectStorage = storage.NewBunnyStorage(&c.Config.Storage)
		logger.Startup("storage_init", "Using Bunny object storage", map[string]interface{}{"zone": c.Config.Storage.StorageZone})
	}

	// Face detection/embedding service client
	c.FaceClient = faceapi.NewFaceClient(&c.Config.FaceAPI)
	logger.Startup("face_client_init", "Face API client ready", map[string]interface{}{"url": c.Config.FaceAPI.BaseURL})

	return nil
}

func (c *Container) initRepositories() error {
	c.EmbeddingRepository = objectstore.NewEmbeddingRepository(c.ObjectStorage)
	c.ModelRepository = objectstore.NewModelRepository(c.ObjectStorage)
	c.EnrollmentRepository = postgres.NewEnrollmentRepository(c.DB)
	c.TrainingRunRepository = postgres.NewTrainingRunRepository(c.DB)

	logger.Startup("repositories_init", "Repositories initialized", nil)
	return nil
}

func (c *Container) initServices() error {
	c.EnrollmentService = serviceimpl.NewEnrollmentService(
		c.FaceClient,
		c.FaceClient,
		c.EmbeddingRepository,
		c.EnrollmentRepository,
		&c.Config.Recognition,
	)

	var coordinator serviceimpl.TrainingCoordinator
	var versions serviceimpl.ModelVersionReader
	if c.RedisClient != nil {
		coordinator = c.RedisClient
		versions = c.RedisClient
	}

	c.TrainingService = serviceimpl.NewTrainingService(
		c.EmbeddingRepository,
		c.ModelRepository,
		c.TrainingRunRepository,
		coordinator,
		&c.Config.Recognition,
	)

	c.RecognitionService = serviceimpl.NewRecognitionService(
		c.FaceClient,
		c.FaceClient,
		c.ModelRepository,
		versions,
		&c.Config.Recognition,
	)

	logger.Startup("services_init", "Services initialized", nil)
	return nil
}

// initScheduler wires the automatic retrain job when TRAIN_CRON is set.
func (c *Container) initScheduler() error {
	if c.Config.Train.Cron == "" {
		logger.Startup("scheduler_disabled", "Automatic retraining disabled", nil)
		return nil
	}

	if err := scheduler.ValidateCronExpression(c.Config.Train.Cron); err != nil {
		return err
	}

	c.EventScheduler = scheduler.NewEventScheduler()
	err := c.EventScheduler.AddJob("auto-retrain", c.Config.Train.Cron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
		defer cancel()

		if _, err := c.TrainingService.Train(ctx); err != nil {
			logger.SchedulerError("auto_retrain", "Scheduled training failed", err, nil)
		}
	})
	if err != nil {
		return err
	}

	c.EventScheduler.Start()
	logger.Startup("scheduler_init", "Automatic retraining scheduled", map[string]interface{}{"cron": c.Config.Train.Cron})
	return nil
}

func (c *Container) Cleanup() error {
	if c.EventScheduler != nil && c.EventScheduler.IsRunning() {
		c.EventScheduler.Stop()
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			logger.StartupWarn("redis_close", "Failed to close redis", map[string]interface{}{"error": err.Error()})
		}
	}

	if c.DB != nil {
		if sqlDB, err := c.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.StartupWarn("db_close", "Failed to close database", map[string]interface{}{"error": err.Error()})
			}
		}
	}

	logger.Default().Close()
	return nil
}

func (c *Container) GetConfig() *config.Config {
	return c.Config
}

func (c *Container) GetHandlerServices() *handlers.Services {
	return &handlers.Services{
		EnrollmentService:  c.EnrollmentService,
		TrainingService:    c.TrainingService,
		RecognitionService: c.RecognitionService,
	}
}

func (c *Container) NewHealthHandler() *handlers.HealthHandler {
	return handlers.NewHealthHandler(c.DB, c.RedisClient, c.FaceClient, c.TrainingRunRepository)
}
