package services

import (
	"fmt"

	. "trialapi/internal/models"
)

// NormalizeTrialRecord fills the optional and derived fields of a schema-valid
// document. A missing end date becomes start date plus one month and forces
// the status to Ongoing. Duration is end minus start in whole days and may be
// negative; see ValidateChronology.
func NormalizeTrialRecord(doc TrialDocument) TrialRecord {
	record := TrialRecord{
		ID:               doc.ID,
		Title:            doc.Title,
		StartDate:        doc.StartDate,
		ParticipantCount: doc.ParticipantCount,
		Status:           doc.Status,
	}

	if doc.EndDate == nil {
		record.EndDate = doc.StartDate.AddMonths(1)
		record.Status = StatusOngoing
	} else {
		record.EndDate = *doc.EndDate
	}

	record.DurationDays = record.StartDate.DaysUntil(record.EndDate)

	return record
}

// ValidateChronology rejects records whose end date precedes the start date.
func ValidateChronology(record TrialRecord) error {
	if record.DurationDays < 0 {
		return NewValidationError(fmt.Sprintf(
			"end date cannot be before start date at '/endDate': %s is before %s",
			record.EndDate,
			record.StartDate,
		))
	}
	return nil
}
