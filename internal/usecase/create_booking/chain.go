package create_booking

import "time"

// itemInterval вычисленный интервал одной позиции
type itemInterval struct {
	Start           time.Time
	End             time.Time
	DurationMinutes int
}

// buildItemIntervals вычисляет интервалы всех позиций как чистую свёртку
// по упорядоченному списку, до каких-либо обращений к БД
//
// Первая позиция начинается со времени начала запроса; каждая следующая -
// с конца предыдущей, если у неё не задано собственное время начала.
// durations выровнен с items (длительность i-й позиции в минутах)
//
// Валидационный и записывающий проходы обходят один и тот же результат,
// поэтому их можно безопасно выполнять повторно
func buildItemIntervals(requestStart time.Time, items []RequestedItem, durations []int) []itemInterval {
	intervals := make([]itemInterval, len(items))

	cursor := requestStart
	for i, item := range items {
		start := cursor
		if item.StartsAt != nil {
			start = *item.StartsAt
		}
		end := start.Add(time.Duration(durations[i]) * time.Minute)

		intervals[i] = itemInterval{
			Start:           start,
			End:             end,
			DurationMinutes: durations[i],
		}

		cursor = end
	}

	return intervals
}
