package task

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaskIsPending(t *testing.T) {
	created := time.Date(2024, 3, 1, 9, 30, 0, 123456789, time.FixedZone("X", 3600))
	tk := New(42, "Buy milk", created)

	assert.Equal(t, int64(42), tk.ID)
	assert.Equal(t, "Buy milk", tk.Text)
	assert.False(t, tk.Completed)
	assert.True(t, tk.CreatedAt.Equal(created.Truncate(time.Millisecond)))
	assert.Equal(t, time.UTC, tk.CreatedAt.Location())
}

func TestRecordFormat(t *testing.T) {
	tk := New(1700000000000, "Write report", time.Date(2024, 1, 2, 3, 4, 5, 6_000_000, time.UTC))
	tk.Completed = true

	r := tk.Record()
	assert.Equal(t, Record{
		ID:        1700000000000,
		Text:      "Write report",
		Completed: true,
		CreatedAt: "2024-01-02T03:04:05.006Z",
	}, r)
}

func TestRecordRoundTrip(t *testing.T) {
	cases := []Task{
		New(1, "a", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)),
		New(1712345678901, "with  inner   spaces", time.Now()),
		{ID: 7, Text: "done already", Completed: true, CreatedAt: time.UnixMilli(1712345678901).UTC()},
	}
	for _, tk := range cases {
		got, err := FromRecord(tk.Record())
		require.NoError(t, err)
		assert.Equal(t, tk, got)
	}
}

func TestFromRecordRejectsMalformed(t *testing.T) {
	cases := map[string]Record{
		"missing id":   {Text: "x", CreatedAt: "2024-01-01T00:00:00.000Z"},
		"empty text":   {ID: 1, Text: "   ", CreatedAt: "2024-01-01T00:00:00.000Z"},
		"bad time":     {ID: 1, Text: "x", CreatedAt: "yesterday"},
		"missing time": {ID: 1, Text: "x"},
	}
	for name, r := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := FromRecord(r)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedRecord))
		})
	}
}

func TestFromRecordAcceptsSecondPrecision(t *testing.T) {
	got, err := FromRecord(Record{ID: 3, Text: "x", CreatedAt: "2024-05-06T07:08:09Z"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC), got.CreatedAt)
}
