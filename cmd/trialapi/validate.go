package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"trialapi/internal/logger"
	. "trialapi/internal/models"
	"trialapi/internal/schema"
	"trialapi/internal/services"

	"github.com/spf13/cobra"
)

var errInvalidDocuments = errors.New("one or more documents failed validation")

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Check trial documents against the schema without storing them",
	Long: `Runs each file through schema validation, normalization and the
chronology check and prints either the normalized record or the error list.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	log := logger.New("main").Function("runValidate")

	validator, err := schema.Load(cfg.SchemaPath)
	if err != nil {
		return log.Err("failed to load schema", err)
	}

	failed := 0
	for _, path := range args {
		if !validateFile(cmd.OutOrStdout(), validator, path) {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errInvalidDocuments, failed, len(args))
	}
	return nil
}

func validateFile(out io.Writer, validator *schema.Validator, path string) bool {
	raw, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(out, "%s: %v\n", path, err)
		return false
	}

	doc, err := validator.Validate(raw)
	if err == nil {
		record := services.NormalizeTrialRecord(doc)
		if err = services.ValidateChronology(record); err == nil {
			fmt.Fprintf(out, "%s: ok id=%s status=%s endDate=%s durationDays=%d\n",
				path, record.ID, record.Status, record.EndDate, record.DurationDays)
			return true
		}
	}

	fmt.Fprintf(out, "%s: invalid\n", path)
	for _, message := range ErrorMessages(err) {
		fmt.Fprintf(out, "  - %s\n", message)
	}
	return false
}
