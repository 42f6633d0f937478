package seed

import (
	"context"
	"time"

	"trialapi/internal/logger"
	. "trialapi/internal/models"
	"trialapi/internal/repositories"
	"trialapi/internal/services"
)

func datePtr(d Date) *Date {
	return &d
}

func sampleTrials() []TrialDocument {
	return []TrialDocument{
		{
			ID:               "1",
			Title:            "COVID-19 Vaccine Trial",
			StartDate:        NewDate(2022, time.January, 1),
			EndDate:          datePtr(NewDate(2022, time.December, 31)),
			ParticipantCount: 1000,
			Status:           StatusNotStarted,
		}, {
			ID:               "2",
			Title:            "COVID-19 Treatment Trial",
			StartDate:        NewDate(2022, time.January, 1),
			EndDate:          datePtr(NewDate(2022, time.December, 31)),
			ParticipantCount: 500,
			Status:           StatusOngoing,
		},
	}
}

// Seed inserts the sample trials when the table is empty and returns how many
// were created.
func Seed(ctx context.Context, repo repositories.TrialRecordRepository, log logger.Logger) (int, error) {
	log = log.Function("seed")

	count, err := repo.Count(ctx)
	if err != nil {
		return 0, log.Err("failed to count trial records", err)
	}

	if count > 0 {
		log.Info("Already have data, not seeding", "count", count)
		return 0, nil
	}

	log.Info("Seeding sample trial records")
	created := 0
	for _, doc := range sampleTrials() {
		record := services.NormalizeTrialRecord(doc)
		if err := repo.Insert(ctx, &record); err != nil {
			log.Er("failed to create trial record", err, "id", record.ID)
			continue
		}
		created++
	}

	return created, nil
}
