package create_booking

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/integrations/companyservice"
)

// Allocation результат подбора сотрудника на интервал
// Незаполненный EmployeeID - валидный исход: бронирование создается
// без сотрудника и ждет ручного распределения
type Allocation struct {
	EmployeeID *int64
}

// Staffed возвращает true, если сотрудник назначен
func (a Allocation) Staffed() bool {
	return a.EmployeeID != nil
}

// allocateEmployee подбирает сотрудника на услугу и интервал [start, end)
//
// Порядок:
//  1. Кандидат из запроса: если он активен, умеет выполнять услугу и свободен - берём его
//  2. Иначе первый активный подходящий сотрудник без пересечений (в стабильном порядке id)
//  3. Иначе без сотрудника - бронирование никогда не блокируется нехваткой персонала
//
// Проверка пересечений выполняется внутри сериализуемой транзакции с блокировкой строк,
// поэтому параллельный запрос на тот же интервал не пройдет ту же проверку до коммита
func (uc *UseCase) allocateEmployee(
	ctx context.Context,
	employees []companyservice.Employee,
	serviceID int64,
	candidateID *int64,
	start, end time.Time,
) (Allocation, error) {
	if candidateID != nil {
		for _, e := range employees {
			if e.ID != *candidateID {
				continue
			}
			if !e.Active || !e.CanPerform(serviceID) {
				uc.logger.Warn("allocateEmployee: requested employee id=%d cannot perform service id=%d, falling back to pool",
					e.ID, serviceID)
				break
			}

			free, err := uc.isEmployeeFree(ctx, e.ID, start, end)
			if err != nil {
				return Allocation{}, err
			}
			if free {
				id := e.ID
				return Allocation{EmployeeID: &id}, nil
			}

			uc.logger.Warn("allocateEmployee: requested employee id=%d is busy, falling back to pool", e.ID)
			break
		}
	}

	for _, e := range employees {
		if !e.Active || !e.CanPerform(serviceID) {
			continue
		}

		free, err := uc.isEmployeeFree(ctx, e.ID, start, end)
		if err != nil {
			return Allocation{}, err
		}
		if free {
			id := e.ID
			return Allocation{EmployeeID: &id}, nil
		}
	}

	// Никто не свободен - создаем без сотрудника
	return Allocation{}, nil
}

// isEmployeeFree проверяет отсутствие активных бронирований сотрудника,
// пересекающихся с интервалом [start, end)
func (uc *UseCase) isEmployeeFree(ctx context.Context, employeeID int64, start, end time.Time) (bool, error) {
	count, err := uc.reservationRepo.CountOverlapping(ctx, employeeID, start, end)
	if err != nil {
		return false, fmt.Errorf("%w: failed to count overlapping reservations: %v", ErrInternal, err)
	}
	return count == 0, nil
}
