package db

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// fixed width so that stored times sort as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// dbTime stores a time as RFC3339 text so that sqlite and postgres round trip it to the nanosecond
type dbTime time.Time

func now() dbTime {
	return dbTime(time.Now())
}

func (t dbTime) Time() time.Time {
	return time.Time(t)
}

// Value implements the driver Valuer interface.
func (t dbTime) Value() (driver.Value, error) {
	return t.Time().UTC().Format(timeLayout), nil
}

// Scan implements the sql.Scanner interface.
func (t *dbTime) Scan(value interface{}) error {
	var st string
	switch v := value.(type) {
	case string:
		st = v
	case []byte:
		st = string(v)
	case time.Time:
		*t = dbTime(v.UTC())
		return nil
	default:
		return fmt.Errorf("invalid type for time: %T", value)
	}

	tt, err := time.Parse(time.RFC3339Nano, st)
	if err != nil {
		return err
	}

	*t = dbTime(tt.UTC())

	return nil
}
