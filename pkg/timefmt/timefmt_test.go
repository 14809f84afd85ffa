package timefmt

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2021, 3, 4, 5, 6, 7, 123000000, time.UTC)

func TestFormat(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{DefaultDate, "2021-03-04"},
		{DefaultTime, "05:06:07"},
		{DefaultDateTime, "2021-03-04T05:06:07"},
		{"HH:mm:ss.SSS", "05:06:07.123"},
		{"dd/MM/yy", "04/03/21"},
		{"EEE, d MMM yyyy", "Thu, 4 Mar 2021"},
		{"'Monday' yyyy", "Monday 2021"},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, err := Format(tt.pattern, at)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse(t *testing.T) {
	parsed, err := Parse(DefaultDateTime, "2021-03-04T05:06:07")
	require.NoError(t, err)
	assert.True(t, parsed.Equal(time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)))

	parsed, err = Parse("dd/MM/yyyy", "04/03/2021")
	require.NoError(t, err)
	assert.Equal(t, 4, parsed.Day())
	assert.Equal(t, time.March, parsed.Month())

	_, err = Parse(DefaultDate, "2021-13-45")
	assert.Error(t, err)
}

func TestUnsupportedPatterns(t *testing.T) {
	for _, pattern := range []string{"", "yyyy-MM-dd'T"} {
		_, err := Format(pattern, at)
		assert.True(t, errors.Is(err, ErrUnsupportedPattern), "pattern %q: %v", pattern, err)
		_, err = Parse(pattern, "2021-03-04")
		assert.True(t, errors.Is(err, ErrUnsupportedPattern), "pattern %q: %v", pattern, err)
	}
}
