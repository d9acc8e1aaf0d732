package schedule

import (
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"9:05", 545, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"noon", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDuration(t *testing.T) {
	assert.Equal(t, 1.0, Duration("09:00", "10:00"))
	assert.Equal(t, 1.5, Duration("22:00", "23:30"))
	assert.Equal(t, 2.0, Duration("23:00", "01:00"))
	assert.Equal(t, 0.5, Duration("23:45", "00:15"))
	assert.Equal(t, 0.0, Duration("10:00", "10:00"))
}

func TestIsWithin(t *testing.T) {
	tests := []struct {
		cur, start, end string
		want            bool
	}{
		{"23:30", "23:00", "01:00", true},
		{"00:30", "23:00", "01:00", true},
		{"12:00", "23:00", "01:00", false},
		{"01:00", "23:00", "01:00", true},
		{"01:01", "23:00", "01:00", false},
		{"22:59", "23:00", "01:00", false},
		{"09:30", "09:00", "10:00", true},
		{"10:00", "09:00", "10:00", true},
		{"08:59", "09:00", "10:00", false},
		{"00:00", "23:00", "00:00", true},
	}
	for _, tt := range tests {
		got := IsWithin(ToMinutes(tt.cur), ToMinutes(tt.start), ToMinutes(tt.end))
		assert.Equal(t, tt.want, got, "IsWithin(%s, %s, %s)", tt.cur, tt.start, tt.end)
	}
}

func TestIsActive_ExcludesEndMinute(t *testing.T) {
	assert.True(t, IsActive(ToMinutes("09:59"), ToMinutes("09:00"), ToMinutes("10:00")))
	assert.False(t, IsActive(ToMinutes("10:00"), ToMinutes("09:00"), ToMinutes("10:00")))
	assert.True(t, IsActive(ToMinutes("00:59"), ToMinutes("23:00"), ToMinutes("01:00")))
	assert.False(t, IsActive(ToMinutes("01:00"), ToMinutes("23:00"), ToMinutes("01:00")))
}

func TestFormatClock_Wraps(t *testing.T) {
	assert.Equal(t, "00:30", FormatClock(1470))
	assert.Equal(t, "23:00", FormatClock(-60))
	assert.Equal(t, "09:05", FormatClock(545))
}

// minute maps an arbitrary generated value onto a minute of the day.
func minute(v uint16) int {
	return int(v) % 1440
}

func TestProperty_OvernightDurationMatchesWrappedEnd(t *testing.T) {
	f := func(a, b uint16) bool {
		start, end := minute(a), minute(b)
		if end >= start {
			return true
		}
		d := DurationMinutes(start, end)
		return d > 0 && d == end+1440-start
	}
	require.NoError(t, quick.Check(f, &quick.Config{MaxCount: 5000}))
}

func TestProperty_DurationWithinOneDay(t *testing.T) {
	f := func(a, b uint16) bool {
		d := DurationMinutes(minute(a), minute(b))
		return d >= 0 && d < 1440
	}
	require.NoError(t, quick.Check(f, &quick.Config{MaxCount: 5000}))
}

func TestProperty_StartAndEndAreWithin(t *testing.T) {
	f := func(a, b uint16) bool {
		start, end := minute(a), minute(b)
		return IsWithin(start, start, end) && IsWithin(end, start, end)
	}
	require.NoError(t, quick.Check(f, &quick.Config{MaxCount: 5000}))
}

func TestProperty_WithinMatchesOffsetWalk(t *testing.T) {
	// A minute is inside a range exactly when walking forward from start
	// reaches it no later than the range's length.
	f := func(a, b, c uint16) bool {
		start, end, cur := minute(a), minute(b), minute(c)
		offset := (cur - start + 1440) % 1440
		return IsWithin(cur, start, end) == (offset <= DurationMinutes(start, end))
	}
	require.NoError(t, quick.Check(f, &quick.Config{MaxCount: 10000}))
}
