package database

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"trialapi/config"
	logg "trialapi/internal/logger"

	"github.com/valkey-io/valkey-go"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type CacheClient valkey.Client

type DB struct {
	SQL    *gorm.DB
	Events CacheClient
	log    logg.Logger
}

func New(config config.Config) (DB, error) {
	log := logg.New("database").Function("New")

	log.Info("Initializing database", "driver", config.DatabaseDriver)
	db := &DB{log: logg.New("database")}

	if err := db.initializeDB(config); err != nil {
		return DB{}, log.Err("failed to initialize database", err)
	}

	if config.DatabaseAutoMigrate {
		applied, err := db.Migrate(MigrateUp)
		if err != nil {
			_ = db.Close()
			return DB{}, log.Err("failed to apply migrations", err)
		}
		log.Info("Migrations applied", "count", applied)
	}

	if err := db.initializeEventsDB(config); err != nil {
		_ = db.Close()
		return DB{}, log.Err("failed to initialize events database", err)
	}

	return *db, nil
}

func (s *DB) initializeDB(config config.Config) error {
	gormLogger := logger.New(
		slog.NewLogLogger(slog.Default().Handler(), slog.LevelDebug),
		logger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  false,
		},
	)

	gormConfig := &gorm.Config{
		Logger:         gormLogger,
		PrepareStmt:    true,
		TranslateError: true,
	}

	switch config.DatabaseDriver {
	case "postgres":
		return s.initializePostgresDB(gormConfig, config)
	default:
		return s.initializeSQLiteDB(gormConfig, config)
	}
}

func (s *DB) initializeSQLiteDB(gormConfig *gorm.Config, config config.Config) error {
	log := s.log.Function("initializeSQLiteDB")

	dbPath := config.DatabaseDbPath
	if dbPath == "" {
		return log.Error("database path is empty", "dbPath", dbPath)
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		log.Debug("Creating database directory", "dir", dir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return log.Err("failed to create database directory", err, "dir", dir)
		}
	}

	log.Info("Connecting with GORM", "dbPath", dbPath)
	db, err := gorm.Open(sqlite.Open(dbPath), gormConfig)
	if err != nil {
		return log.Err("failed to open database with GORM", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return log.Err("failed to get database from GORM", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return log.Err("failed to ping database through GORM", err)
	}

	// SQLite serializes writers; a single connection also keeps ":memory:"
	// databases visible to every query.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	s.SQL = db
	log.Info("Successfully connected with GORM")

	return nil
}

func (s *DB) initializePostgresDB(gormConfig *gorm.Config, config config.Config) error {
	log := s.log.Function("initializePostgresDB")

	log.Info("Connecting with GORM", "host", config.DatabaseHost, "database", config.DatabaseName)
	db, err := gorm.Open(postgres.Open(config.PostgresDSN()), gormConfig)
	if err != nil {
		return log.Err("failed to open database with GORM", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return log.Err("failed to get database from GORM", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return log.Err("failed to ping database through GORM", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	s.SQL = db
	log.Info("Successfully connected with GORM")

	return nil
}

// initializeEventsDB connects the change-event client. It is optional and
// left nil when no cache address is configured.
func (s *DB) initializeEventsDB(config config.Config) error {
	log := s.log.Function("initializeEventsDB")

	address := config.CacheAddress()
	if address == "" {
		log.Info("No cache address configured, change events disabled")
		return nil
	}

	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:  []string{address},
		DisableCache: true,
	})
	if err != nil {
		return log.Err("failed to create valkey client", err, "address", address)
	}

	s.Events = client
	log.Info("Connected to valkey", "address", address)
	return nil
}

func (s *DB) Close() (err error) {
	if s.SQL != nil {
		sqlDB, dbErr := s.SQL.DB()
		if dbErr == nil {
			if closeErr := sqlDB.Close(); closeErr != nil {
				err = s.log.Function("Close").Err("failed to close database", closeErr)
			}
		}
	}

	if s.Events != nil {
		s.Events.Close()
	}

	return err
}

func (s *DB) SQLWithContext(ctx context.Context) *gorm.DB {
	return s.SQL.WithContext(ctx)
}

func (s *DB) Ping(ctx context.Context) error {
	if s.SQL == nil {
		return s.log.Function("Ping").Error("database is not initialized")
	}

	sqlDB, err := s.SQL.DB()
	if err != nil {
		return s.log.Function("Ping").Err("failed to get database from GORM", err)
	}

	return sqlDB.PingContext(ctx)
}

func (s *DB) Dialect() string {
	if s.SQL == nil {
		return ""
	}
	return s.SQL.Dialector.Name()
}
