package main

import (
	"fmt"

	"trialapi/cmd/migration/initialize"
	"trialapi/internal/database"
	"trialapi/internal/logger"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status]",
	Short:     "Apply, roll back or list the database migrations",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "status"},
	RunE:      runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	log := logger.New("main").Function("runMigrate")

	action := "up"
	if len(args) == 1 {
		action = args[0]
	}

	migrateConfig := cfg
	migrateConfig.DatabaseAutoMigrate = false

	db, err := database.New(migrateConfig)
	if err != nil {
		return log.Err("failed to open database", err)
	}
	defer db.Close()

	switch action {
	case "status":
		return initialize.WriteStatus(db, cmd.OutOrStdout(), log)
	case "down":
		applied, err := initialize.InitializeTables(db, database.MigrateDown, log)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", applied)
	default:
		applied, err := initialize.InitializeTables(db, database.MigrateUp, log)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", applied)
	}

	return nil
}
