package storage

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp_MarshalAlwaysHasMillis(t *testing.T) {
	cases := []struct {
		in   time.Time
		want string
	}{
		{time.Date(2025, 4, 2, 9, 30, 0, 0, time.UTC), `"2025-04-02T09:30:00.000Z"`},
		{time.Date(2025, 4, 2, 9, 30, 0, 120_000_000, time.UTC), `"2025-04-02T09:30:00.120Z"`},
		{time.Date(2025, 4, 2, 9, 30, 0, 120_999_999, time.UTC), `"2025-04-02T09:30:00.120Z"`},
		{time.Date(2025, 4, 2, 12, 30, 0, 0, time.FixedZone("AST", 3*3600)), `"2025-04-02T09:30:00.000Z"`},
	}
	for _, c := range cases {
		b, err := json.Marshal(NewTimestamp(c.in))
		require.NoError(t, err)
		assert.Equal(t, c.want, string(b))
	}
}

func TestTimestamp_RecordBytes(t *testing.T) {
	rec := ConversationRecord{
		ID:        1,
		User:      "u",
		Bot:       "b",
		Timestamp: NewTimestamp(time.Date(2025, 4, 2, 9, 30, 0, 0, time.UTC)),
		Session:   "s",
	}
	b, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t, `{"id":1,"user":"u","bot":"b","timestamp":"2025-04-02T09:30:00.000Z","session":"s"}`, string(b))
}

func TestTimestamp_Unmarshal(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"2025-04-02T09:30:00.12Z"`), &ts))
	assert.Equal(t, "2025-04-02T09:30:00.120Z", ts.String())

	require.NoError(t, json.Unmarshal([]byte(`"2025-04-02T12:30:00+03:00"`), &ts))
	assert.Equal(t, "2025-04-02T09:30:00.000Z", ts.String())

	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
}
