package utils

import (
	"time"
)

const _timeLayout = "2006-01-02T15:04:05.000Z07:00"

// Time serializes as UTC with millisecond precision.
type Time struct {
	time.Time
}

func (t Time) MarshalJSON() ([]byte, error) {
	formatted := t.UTC().Format(_timeLayout)
	return []byte(`"` + formatted + `"`), nil
}

func (t *Time) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	parsed, err := time.Parse(`"`+_timeLayout+`"`, string(data))
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}
