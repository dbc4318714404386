package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classroll/classroll-api/internal/models"
)

func TestParsePreservesOrderAndWindows(t *testing.T) {
	reg, err := Parse([]string{
		"Mathematics=09:00-10:00",
		"Science=10:30-11:30",
		"English=12:00-13:00",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Mathematics", "Science", "English"}, reg.Subjects())

	window, ok := reg.Lookup("Mathematics")
	require.True(t, ok)
	assert.Equal(t, "09:00:00", window.Start.String())
	assert.Equal(t, "10:00:00", window.End.String())
}

func TestLookupMissIsNotAnError(t *testing.T) {
	reg, err := Parse([]string{"Mathematics=09:00-10:00"})
	require.NoError(t, err)

	_, ok := reg.Lookup("Chemistry")
	assert.False(t, ok)
}

func TestParseRejectsMalformedEntries(t *testing.T) {
	cases := []string{
		"Mathematics",
		"=09:00-10:00",
		"Mathematics=09:00",
		"Mathematics=25:00-26:00",
		"Mathematics=10:00-09:00",
	}
	for _, raw := range cases {
		_, err := Parse([]string{raw})
		assert.Error(t, err, raw)
	}
}

func TestParseRejectsDuplicateSubjects(t *testing.T) {
	_, err := Parse([]string{"Mathematics=09:00-10:00", "Mathematics=11:00-12:00"})
	assert.Error(t, err)
}

func TestWindowContainsIsInclusiveOnBothEnds(t *testing.T) {
	reg, err := Parse([]string{"Mathematics=09:00-10:00"})
	require.NoError(t, err)
	window, _ := reg.Lookup("Mathematics")

	at := func(raw string) models.ClockTime {
		c, err := models.ParseClockTime(raw)
		require.NoError(t, err)
		return c
	}

	assert.False(t, window.Contains(at("08:59:59")))
	assert.True(t, window.Contains(at("09:00:00")))
	assert.True(t, window.Contains(at("09:30:00")))
	assert.True(t, window.Contains(at("10:00:00")))
	assert.False(t, window.Contains(at("10:00:01")))
}
