package create_booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildItemIntervals_Chaining(t *testing.T) {
	start := time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)
	items := []RequestedItem{
		{ServiceID: 1},
		{ServiceID: 2},
		{ServiceID: 3},
	}
	durations := []int{60, 30, 45}

	intervals := buildItemIntervals(start, items, durations)

	assert.Len(t, intervals, 3)

	// Первая позиция начинается со времени запроса
	assert.Equal(t, start, intervals[0].Start)
	assert.Equal(t, start.Add(60*time.Minute), intervals[0].End)

	// Каждая следующая начинается с конца предыдущей
	assert.Equal(t, intervals[0].End, intervals[1].Start)
	assert.Equal(t, intervals[1].End, intervals[2].Start)
	assert.Equal(t, start.Add(135*time.Minute), intervals[2].End)
}

func TestBuildItemIntervals_ExplicitStartOverride(t *testing.T) {
	start := time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)
	explicit := time.Date(2025, 6, 11, 14, 0, 0, 0, time.UTC)
	items := []RequestedItem{
		{ServiceID: 1},
		{ServiceID: 2, StartsAt: &explicit},
		{ServiceID: 3},
	}
	durations := []int{60, 30, 45}

	intervals := buildItemIntervals(start, items, durations)

	// Явное время начала разрывает цепочку
	assert.Equal(t, explicit, intervals[1].Start)
	assert.Equal(t, explicit.Add(30*time.Minute), intervals[1].End)

	// Следующая позиция продолжает от конца позиции с явным временем
	assert.Equal(t, intervals[1].End, intervals[2].Start)
}

func TestBuildItemIntervals_Deterministic(t *testing.T) {
	start := time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)
	items := []RequestedItem{{ServiceID: 1}, {ServiceID: 2}}
	durations := []int{60, 30}

	// Свёртка не имеет состояния: повторный вызов дает тот же результат
	first := buildItemIntervals(start, items, durations)
	second := buildItemIntervals(start, items, durations)

	assert.Equal(t, first, second)
}
