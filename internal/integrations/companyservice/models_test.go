package companyservice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

func TestCompany_DomainOpeningWindows(t *testing.T) {
	company := &Company{
		ID:       1,
		Timezone: "Africa/Algiers",
		OpeningWindows: []OpeningWindow{
			{Weekday: 3, Start: "09:00", End: "18:00"},
			{Weekday: 5, Start: "10:00", End: "14:30"},
		},
	}

	windows, err := company.DomainOpeningWindows()
	require.NoError(t, err)
	require.Len(t, windows, 2)
	assert.Equal(t, types.TimeString("09:00"), windows[0].Start)
	assert.Equal(t, types.TimeString("18:00"), windows[0].End)
	assert.Equal(t, 5, windows[1].Weekday)
}

func TestCompany_DomainOpeningWindows_MidnightClose(t *testing.T) {
	// Окно до конца суток должно проходить конвертацию и работать в домене
	company := &Company{
		ID:       1,
		Timezone: "Africa/Algiers",
		OpeningWindows: []OpeningWindow{
			{Weekday: 3, Start: "09:00", End: "24:00"},
		},
	}

	windows, err := company.DomainOpeningWindows()
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, types.EndOfDay, windows[0].End)
	assert.True(t, windows[0].Contains(23*60, 24*60))
}

func TestCompany_DomainOpeningWindows_InvalidTime(t *testing.T) {
	company := &Company{
		ID:       1,
		Timezone: "Africa/Algiers",
		OpeningWindows: []OpeningWindow{
			{Weekday: 3, Start: "09:00", End: "25:00"},
		},
	}

	_, err := company.DomainOpeningWindows()
	assert.ErrorIs(t, err, types.ErrInvalidTimeString)
}
