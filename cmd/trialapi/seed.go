package main

import (
	"fmt"

	"trialapi/cmd/migration/initialize"
	"trialapi/cmd/migration/seed"
	"trialapi/internal/database"
	"trialapi/internal/logger"
	"trialapi/internal/repositories"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the sample trial records into an empty database",
	Args:  cobra.NoArgs,
	RunE:  runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	log := logger.New("main").Function("runSeed")

	db, err := database.New(cfg)
	if err != nil {
		return log.Err("failed to open database", err)
	}
	defer db.Close()

	if _, err := initialize.InitializeTables(db, database.MigrateUp, log); err != nil {
		return err
	}

	created, err := seed.Seed(cmd.Context(), repositories.NewTrialRecord(db), log)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d trial record(s)\n", created)
	return nil
}
