package app

import (
	"trialapi/config"
	"trialapi/internal/database"
	"trialapi/internal/events"
	"trialapi/internal/handlers/middleware"
	"trialapi/internal/logger"
	"trialapi/internal/metrics"
	"trialapi/internal/repositories"
	"trialapi/internal/schema"
	"trialapi/internal/services"

	trialRecordController "trialapi/internal/controllers/trialRecord"
)

type App struct {
	Database   database.DB
	Middleware middleware.Middleware
	Publisher  events.Publisher
	Metrics    *metrics.Metrics
	Validator  *schema.Validator
	Config     config.Config

	// Services
	TransactionService *services.TransactionService

	// Repositories
	TrialRecordRepo repositories.TrialRecordRepository

	// Controllers
	TrialRecordController *trialRecordController.TrialRecordController
}

func New() (*App, error) {
	log := logger.New("app").Function("New")

	config, err := config.InitConfig()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	return NewWithConfig(config)
}

// NewWithConfig wires every dependency from an already loaded config.
func NewWithConfig(config config.Config) (*App, error) {
	log := logger.New("app").Function("NewWithConfig")

	validator, err := schema.Load(config.SchemaPath)
	if err != nil {
		return &App{}, log.Err("failed to load schema", err, "path", config.SchemaPath)
	}

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	publisher := events.New(db.Events, config)
	metrics := metrics.New()

	// Initialize services
	transactionService := services.NewTransactionService(db)

	// Initialize repositories
	trialRecordRepo := repositories.NewTrialRecord(db)

	// Initialize controllers with repositories and services
	middleware := middleware.New(metrics)
	trialRecordController := trialRecordController.New(
		trialRecordRepo,
		validator,
		publisher,
		metrics,
		transactionService,
		config,
	)

	app := &App{
		Database:              db,
		Config:                config,
		Middleware:            middleware,
		Publisher:             publisher,
		Metrics:               metrics,
		Validator:             validator,
		TransactionService:    transactionService,
		TrialRecordRepo:       trialRecordRepo,
		TrialRecordController: trialRecordController,
	}

	if err := app.validate(); err != nil {
		_ = app.Close()
		return &App{}, log.Err("failed to validate app", err)
	}

	return app, nil
}

func (a *App) validate() error {
	log := logger.New("app").Function("validate")
	if a.Database.SQL == nil {
		return log.ErrMsg("database is nil")
	}

	if a.Config == (config.Config{}) {
		return log.ErrMsg("config is nil")
	}

	nilChecks := map[string]bool{
		"publisher":             a.Publisher == nil,
		"metrics":               a.Metrics == nil,
		"validator":             a.Validator == nil,
		"transactionService":    a.TransactionService == nil,
		"trialRecordRepo":       a.TrialRecordRepo == nil,
		"trialRecordController": a.TrialRecordController == nil,
	}

	for name, isNil := range nilChecks {
		if isNil {
			return log.Error("nil check failed", "dependency", name)
		}
	}

	return nil
}

func (a *App) Close() (err error) {
	if a.Publisher != nil {
		if closeErr := a.Publisher.Close(); closeErr != nil {
			err = closeErr
		}
	}

	if dbErr := a.Database.Close(); dbErr != nil {
		err = dbErr
	}

	return err
}
