package initialize

import (
	"fmt"
	"io"
	"text/tabwriter"

	"trialapi/internal/database"
	"trialapi/internal/logger"
)

// InitializeTables runs the embedded migrations in direction and returns how
// many were applied.
func InitializeTables(db database.DB, direction database.MigrateDirection, log logger.Logger) (int, error) {
	log = log.Function("InitializeTables")
	log.Info("Running migrations", "direction", direction)

	applied, err := db.Migrate(direction)
	if err != nil {
		return applied, log.Err("failed to run migrations", err, "direction", direction)
	}

	log.Info("Migrations complete", "applied", applied)
	return applied, nil
}

// WriteStatus prints every applied migration with its timestamp.
func WriteStatus(db database.DB, w io.Writer, log logger.Logger) error {
	log = log.Function("WriteStatus")

	records, err := db.MigrationStatus()
	if err != nil {
		return log.Err("failed to read migration status", err)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MIGRATION\tAPPLIED AT")
	for _, record := range records {
		fmt.Fprintf(tw, "%s\t%s\n", record.Id, record.AppliedAt.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}
