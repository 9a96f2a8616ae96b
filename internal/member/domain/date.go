package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Layouts accepted on input. Front-desk clients send datetimes, only the
// date part is kept.
var inputDateLayouts = []string{
	dateLayout,
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

// Date is a calendar date without time zone. It is stored as midnight UTC.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

func ParseDate(s string) (Date, error) {
	for _, layout := range inputDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
}

func (d Date) Time() time.Time { return d.t }

func (d Date) IsZero() bool { return d.t.IsZero() }

func (d Date) After(other Date) bool { return d.t.After(other.t) }

func (d Date) Equal(other Date) bool { return d.t.Equal(other.t) }

const secondsPerDay = 24 * 60 * 60

// DaysSince returns the number of whole days from other to d.
// It is negative when d is before other. Both dates are UTC midnights, so
// the Unix-second difference is an exact multiple of a day for any range.
func (d Date) DaysSince(other Date) int {
	return int((d.t.Unix() - other.t.Unix()) / secondsPerDay)
}

func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

func (d Date) String() string {
	return d.t.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// OptionalDate distinguishes a field that was left out of a JSON document
// from one explicitly set to null.
type OptionalDate struct {
	Set   bool
	Value *Date
}

func (o *OptionalDate) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var d Date
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	o.Value = &d
	return nil
}
