package models

type TrialRecord struct {
	ID               string `gorm:"type:varchar(64);primaryKey"     json:"id"`
	Title            string `gorm:"type:text;not null"              json:"title"`
	StartDate        Date   `gorm:"type:date;not null"              json:"startDate"`
	EndDate          Date   `gorm:"type:date;not null"              json:"endDate"`
	ParticipantCount int    `gorm:"not null;default:0"              json:"participantCount"`
	Status           Status `gorm:"type:varchar(20);not null;index" json:"status"`
	DurationDays     int    `gorm:"not null"                        json:"durationDays"`
	BaseModel
}

func (TrialRecord) TableName() string {
	return "trial_records"
}

// TrialDocument is an uploaded document that passed schema validation.
// EndDate is nil when the document omitted it. Duration is never accepted
// from input.
type TrialDocument struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	StartDate        Date   `json:"startDate"`
	EndDate          *Date  `json:"endDate,omitempty"`
	ParticipantCount int    `json:"participantCount,omitempty"`
	Status           Status `json:"status"`
}

// TrialRecordFilter holds the optional, conjunctive list filters. Empty
// fields are not applied.
type TrialRecordFilter struct {
	ID     string
	Title  string
	Status *Status
}

type BatchFailure struct {
	Index  int      `json:"index"`
	ID     string   `json:"id,omitempty"`
	Status int      `json:"status"`
	Errors []string `json:"errors"`
}

type BatchResult struct {
	Created []TrialRecord  `json:"created"`
	Failed  []BatchFailure `json:"failed"`
}
