package pocketbase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordGetters(t *testing.T) {
	record := Record{
		"id":     "r1",
		"email":  "a@example.com",
		"paid":   true,
		"amount": float64(12.5),
	}

	assert.Equal(t, "r1", record.ID())
	assert.Equal(t, "a@example.com", record.GetString("email"))
	assert.True(t, record.GetBool("paid"))
	assert.Equal(t, 12.5, record.GetFloat("amount"))

	assert.Equal(t, "", record.GetString("missing"))
	assert.False(t, record.GetBool("missing"))
	assert.Zero(t, record.GetFloat("missing"))
	assert.Equal(t, "", record.GetString("amount"))
}

func TestRecordGetTimeLayouts(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  time.Time
	}{
		{
			"store timestamp",
			"2024-03-01 10:20:30.123Z",
			time.Date(2024, 3, 1, 10, 20, 30, 123_000_000, time.UTC),
		},
		{
			"rfc3339",
			"2024-03-01T10:20:30Z",
			time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC),
		},
		{
			"store timestamp without millis",
			"2024-03-01 10:20:30Z",
			time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC),
		},
		{"empty", "", time.Time{}},
		{"garbage", "not-a-time", time.Time{}},
		{"non-string", float64(42), time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := Record{"ts": tt.value}
			assert.True(t, tt.want.Equal(record.GetTime("ts")))
		})
	}
}

func TestListOptionsQuery(t *testing.T) {
	q := ListOptions{Page: 2, PerPage: 50, Sort: "-created", Filter: `userId = "u1"`}.query()
	assert.Equal(t, "2", q.Get("page"))
	assert.Equal(t, "50", q.Get("perPage"))
	assert.Equal(t, "-created", q.Get("sort"))
	assert.Equal(t, `userId = "u1"`, q.Get("filter"))

	assert.Empty(t, ListOptions{}.query())
}
