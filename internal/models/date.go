package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"trialapi/internal/utils"

	"github.com/goccy/go-json"
)

// Date is a calendar date without a clock or zone. It is stored and
// serialized as "2006-01-02".
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func DateOf(t time.Time) Date {
	return Date{Time: utils.TruncateToDate(t)}
}

func ParseDate(value string) (Date, error) {
	parsed, err := utils.ParseCalendarDate(value)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: parsed}, nil
}

func (d Date) String() string {
	return d.Format(utils.FormatCalendarDate)
}

func (d Date) Equal(other Date) bool {
	return d.Time.Equal(other.Time)
}

// AddMonths follows time.AddDate month overflow rules.
func (d Date) AddMonths(months int) Date {
	return Date{Time: utils.AddCalendarMonths(d.Time, months)}
}

func (d Date) DaysUntil(end Date) int {
	return utils.DaysBetween(d.Time, end.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}

	parsed, err := ParseDate(value)
	if err != nil {
		return err
	}

	*d = parsed
	return nil
}

func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan accepts the text form and the time.Time some drivers produce for DATE columns.
func (d *Date) Scan(value any) error {
	switch v := value.(type) {
	case time.Time:
		*d = DateOf(v)
		return nil
	case string:
		return d.scanText(v)
	case []byte:
		return d.scanText(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Date", value)
	}
}

func (d *Date) scanText(value string) error {
	if len(value) > len(utils.FormatCalendarDate) {
		value = value[:len(utils.FormatCalendarDate)]
	}

	parsed, err := ParseDate(value)
	if err != nil {
		return err
	}

	*d = parsed
	return nil
}
