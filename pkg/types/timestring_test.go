package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeStringFromString(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "08:00", want: "08:00"},
		{in: "18:45:00", want: "18:45"},
		{in: " 06:05 ", want: "06:05"},
		{in: "25:00", wantErr: true},
		{in: "8am", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NewTimeStringFromString(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTimeString)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestTimeString_AddMinutesAndCompare(t *testing.T) {
	start := MustTimeString("16:00")

	end, err := start.AddMinutes(45)
	require.NoError(t, err)
	assert.Equal(t, "16:45", end.String())
	assert.True(t, start.IsBefore(end))
	assert.True(t, end.IsAfter(start))

	_, err = MustTimeString("23:30").AddMinutes(60)
	assert.ErrorIs(t, err, ErrTimeOverflow)
}

func TestTimeString_On(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	date := time.Date(2026, 10, 20, 0, 0, 0, 0, loc)

	got := MustTimeString("18:30").On(date, loc)

	assert.Equal(t, time.Date(2026, 10, 20, 18, 30, 0, 0, loc), got)
}

func TestTimeString_Scan(t *testing.T) {
	var ts TimeString

	require.NoError(t, ts.Scan([]byte("07:00:00")))
	assert.Equal(t, "07:00", ts.String())

	require.NoError(t, ts.Scan(time.Date(0, 1, 1, 21, 15, 0, 0, time.UTC)))
	assert.Equal(t, "21:15", ts.String())

	require.NoError(t, ts.Scan(nil))
	assert.True(t, ts.IsZero())

	assert.Error(t, ts.Scan(42))
}
