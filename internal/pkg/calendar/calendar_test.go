package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		input string
		want  string
		ok    bool
	}{
		{"09:00", "09:00:00", true},
		{"09:00:01", "09:00:01", true},
		{"23:59:59", "23:59:59", true},
		{"24:00", "", false},
		{"9:00", "", false},
		{"09:60", "", false},
		{"", "", false},
		{"ab:cd", "", false},
	}
	for _, c := range cases {
		got, err := ParseTimeOfDay(c.input)
		if !c.ok {
			assert.Error(t, err, c.input)
			continue
		}
		require.NoError(t, err, c.input)
		assert.Equal(t, c.want, got.String())
	}
}

func TestTimeOfDay_MinutesUntil(t *testing.T) {
	start := MustParseTimeOfDay("08:55:00")
	end := MustParseTimeOfDay("19:10:00")
	assert.Equal(t, 615, start.MinutesUntil(end))
	assert.Equal(t, -615, end.MinutesUntil(start))

	// partial minutes are truncated
	assert.Equal(t, 0, start.MinutesUntil(MustParseTimeOfDay("08:55:59")))
}

func TestMinMaxTime(t *testing.T) {
	a := MustParseTimeOfDay("09:00")
	b := MustParseTimeOfDay("13:00")

	assert.Nil(t, MinTime(nil, nil))
	assert.Equal(t, a, *MinTime(nil, &b, &a))
	assert.Equal(t, b, *MaxTime(&a, nil, &b))
}

func TestYearMonth(t *testing.T) {
	ym, err := ParseYearMonth("2024-02")
	require.NoError(t, err)
	assert.Equal(t, "202402", ym.String())
	assert.Len(t, ym.Days(), 29)
	assert.Equal(t, 21, ym.Weekdays())
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), ym.LastDay())
	assert.Equal(t, YearMonth{Year: 2024, Month: time.January}, ym.Previous())

	_, err = NewYearMonth(2024, 13)
	assert.Error(t, err)
}

func TestTimeOfDay_TextRoundTrip(t *testing.T) {
	var got TimeOfDay
	require.NoError(t, got.UnmarshalText([]byte("18:30:15")))
	b, err := got.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "18:30:15", string(b))
}
