package task

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const dateOnly = "2006-01-02"

var ErrInvalidDueDate = errors.New("dueDate must be a date (2006-01-02) or an RFC3339 timestamp")

// DueDate is the dueDate field of a request body. Set records whether the key
// was sent at all; null and "" are sent-but-empty and clear the date on update.
type DueDate struct {
	Time *time.Time
	Set  bool
}

// DueDateOn is a set due date, normalized to UTC.
func DueDateOn(t time.Time) DueDate {
	return DueDate{Time: utcPtr(&t), Set: true}
}

// ClearDueDate is a sent-but-empty due date.
func ClearDueDate() DueDate {
	return DueDate{Set: true}
}

func (d *DueDate) UnmarshalJSON(b []byte) error {
	d.Set = true
	d.Time = nil

	if bytes.Equal(b, []byte("null")) {
		return nil
	}

	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return ErrInvalidDueDate
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	t, err := ParseDueDate(raw)
	if err != nil {
		return err
	}

	d.Time = &t

	return nil
}

func (d DueDate) MarshalJSON() ([]byte, error) {
	if d.Time == nil {
		return []byte("null"), nil
	}
	return json.Marshal(d.Time.UTC().Format(time.RFC3339))
}

// ParseDueDate accepts a calendar date, read as midnight UTC, or an RFC3339
// timestamp.
func ParseDueDate(raw string) (time.Time, error) {
	if t, err := time.Parse(dateOnly, raw); err == nil {
		return t, nil
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, ErrInvalidDueDate
	}

	return t.UTC(), nil
}
