package database

import (
	"embed"

	migrate "github.com/rubenv/sql-migrate"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

type MigrateDirection = migrate.MigrationDirection

const (
	MigrateUp   MigrateDirection = migrate.Up
	MigrateDown MigrateDirection = migrate.Down
)

func migrationSource() migrate.MigrationSource {
	return &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrationFiles,
		Root:       "migrations",
	}
}

// migrationDialect maps the GORM dialector name to the sql-migrate dialect.
func migrationDialect(gormDialect string) string {
	if gormDialect == "postgres" {
		return "postgres"
	}
	return "sqlite3"
}

// Migrate applies (or rolls back) every embedded migration and returns how
// many ran.
func (s *DB) Migrate(direction MigrateDirection) (int, error) {
	log := s.log.Function("Migrate")

	if s.SQL == nil {
		return 0, log.Error("database is not initialized")
	}

	sqlDB, err := s.SQL.DB()
	if err != nil {
		return 0, log.Err("failed to get database from GORM", err)
	}

	applied, err := migrate.Exec(sqlDB, migrationDialect(s.Dialect()), migrationSource(), direction)
	if err != nil {
		return applied, log.Err("failed to execute migrations", err, "direction", direction)
	}

	return applied, nil
}

func (s *DB) MigrationStatus() ([]*migrate.MigrationRecord, error) {
	log := s.log.Function("MigrationStatus")

	sqlDB, err := s.SQL.DB()
	if err != nil {
		return nil, log.Err("failed to get database from GORM", err)
	}

	records, err := migrate.GetMigrationRecords(sqlDB, migrationDialect(s.Dialect()))
	if err != nil {
		return nil, log.Err("failed to read migration records", err)
	}

	return records, nil
}
