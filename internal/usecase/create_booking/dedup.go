package create_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	reservationRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/reservation"
)

// findRecentDuplicate ищет уже созданное эквивалентное бронирование:
// тот же клиент и компания, начало в пределах ±DedupStartToleranceSeconds
// от запрошенного, создано за последние dedupWindow секунд, активный статус,
// та же первая услуга
//
// Это эвристика против double click и ретраев сети, а не строгий
// ключ идемпотентности: возможны и ложные срабатывания (легитимное быстрое
// повторное бронирование), и пропуски (другой порядок позиций)
//
// Возвращает nil, nil если дубль не найден
func (uc *UseCase) findRecentDuplicate(
	ctx context.Context,
	clientID int64,
	companyID int64,
	startsAt time.Time,
	firstServiceID int64,
	now time.Time,
) (*domain.Reservation, error) {
	startFrom := startsAt.Add(-domain.DedupStartToleranceSeconds * time.Second)
	startTo := startsAt.Add(domain.DedupStartToleranceSeconds * time.Second)
	createdAfter := now.Add(-time.Duration(uc.dedupWindowSeconds) * time.Second)

	found, err := uc.reservationRepo.FindDuplicate(ctx, clientID, companyID, startFrom, startTo, createdAfter, firstServiceID)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrReservationNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to look up duplicate: %v", ErrInternal, err)
	}

	return found, nil
}
