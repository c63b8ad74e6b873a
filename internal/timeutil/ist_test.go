package timeutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "0m 00s"},
		{59, "0m 59s"},
		{65, "1m 05s"},
		{3600, "1h 00m"},
		{8*3600 + 15*60, "8h 15m"},
		{-5, "0m 00s"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.seconds))
	}
}

func TestStartOfDay(t *testing.T) {
	now := Now()
	start := StartOfDay(now)

	assert.Equal(t, 0, start.Hour())
	assert.Equal(t, 0, start.Minute())
	assert.Equal(t, 0, start.Second())
	assert.False(t, start.After(now))
}
