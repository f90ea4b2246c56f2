package storage

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the UTC millisecond form used by every stored and exported
// timestamp, e.g. 2025-04-02T09:30:00.120Z.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Timestamp is a point in time that always encodes with exactly three
// fractional digits in UTC.
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates t to milliseconds in UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Millisecond)}
}

func (t Timestamp) String() string {
	return t.UTC().Format(TimestampLayout)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON accepts any RFC 3339 value so blobs written by other tools load as well.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	*t = NewTimestamp(parsed)
	return nil
}
