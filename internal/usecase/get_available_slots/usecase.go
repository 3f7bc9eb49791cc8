package get_available_slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/companyservice"
	"github.com/m04kA/SMC-AppointmentService/internal/schedule"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// slotStepMinutes шаг генерации стартов внутри окна приёма
const slotStepMinutes = 15

// UseCase use case получения доступных слотов для бронирования
// Для каждого возможного времени начала считает, сколько подходящих
// сотрудников свободно на весь интервал услуги
type UseCase struct {
	reservationRepo ReservationRepository
	companyClient   CompanyServiceClient
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	reservationRepo ReservationRepository,
	companyClient CompanyServiceClient,
	logger Logger,
) *UseCase {
	return &UseCase{
		reservationRepo: reservationRepo,
		companyClient:   companyClient,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// Execute выполняет use case получения доступных слотов
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableSlots: company=%d, service=%d, date=%s",
		req.CompanyID, req.ServiceID, req.Date.Format(domain.DateFormat))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	now := uc.timeProvider.Now()

	// 2. Получаем компанию с таймзоной и окнами приёма
	company, err := uc.companyClient.GetCompany(ctx, req.CompanyID)
	if err != nil {
		if errors.Is(err, companyservice.ErrCompanyNotFound) {
			uc.logger.Warn("GetAvailableSlots: company id=%d not found", req.CompanyID)
			return nil, ErrCompanyNotFound
		}
		uc.logger.Error("GetAvailableSlots: failed to get company id=%d: %v", req.CompanyID, err)
		return nil, fmt.Errorf("%w: failed to get company: %v", ErrInternal, err)
	}

	windows, err := company.DomainOpeningWindows()
	if err != nil {
		uc.logger.Error("GetAvailableSlots: company id=%d has malformed opening windows: %v", req.CompanyID, err)
		return nil, fmt.Errorf("%w: malformed opening windows: %v", ErrInvalidConfiguration, err)
	}

	// 3. Получаем услугу
	service, err := uc.companyClient.GetService(ctx, req.CompanyID, req.ServiceID)
	if err != nil {
		if errors.Is(err, companyservice.ErrServiceNotFound) {
			uc.logger.Warn("GetAvailableSlots: service id=%d not found", req.ServiceID)
			return nil, ErrServiceNotFound
		}
		uc.logger.Error("GetAvailableSlots: failed to get service id=%d: %v", req.ServiceID, err)
		return nil, fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
	}

	// 4. Границы локального дня компании как абсолютные моменты времени
	dayStart, err := schedule.ApplyLocalTimeToDay(req.Date, types.TimeString("00:00"), company.Timezone)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: invalid timezone %q: %v", company.Timezone, err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	dayEnd := dayStart.AddDate(0, 0, 1)

	weekday := int(dayStart.Weekday())

	// 5. Возможные времена начала в окнах приёма
	startTimes := generateStartTimes(windows, weekday, service.DurationMinutes, slotStepMinutes)
	if len(startTimes) == 0 {
		uc.logger.Info("GetAvailableSlots: company id=%d is closed on %s",
			req.CompanyID, req.Date.Format(domain.DateFormat))
		return &Response{
			Date:      req.Date,
			CompanyID: req.CompanyID,
			ServiceID: req.ServiceID,
			Slots:     []Slot{},
		}, nil
	}

	// 6. Сотрудники и активные бронирования на этот день
	employees, err := uc.companyClient.ListEmployees(ctx, req.CompanyID)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to list employees for company id=%d: %v", req.CompanyID, err)
		return nil, fmt.Errorf("%w: failed to list employees: %v", ErrInternal, err)
	}

	reservations, err := uc.reservationRepo.GetActiveByCompanyAndRange(ctx, req.CompanyID, dayStart, dayEnd)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to get reservations: %v", err)
		return nil, fmt.Errorf("%w: failed to get reservations: %v", ErrInternal, err)
	}

	// 7. Считаем доступность каждого слота; прошедшие старты отбрасываем
	slots := make([]Slot, 0, len(startTimes))
	for _, startTS := range startTimes {
		start, err := schedule.ApplyLocalTimeToDay(req.Date, startTS, company.Timezone)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
		}
		if start.Before(now) {
			continue
		}
		end := start.Add(time.Duration(service.DurationMinutes) * time.Minute)

		freeCount, totalCount := countFreeEmployees(employees, req.ServiceID, reservations, start, end)

		slots = append(slots, Slot{
			StartTime:          startTS,
			DurationMinutes:    service.DurationMinutes,
			AvailableEmployees: freeCount,
			TotalEmployees:     totalCount,
		})
	}

	uc.logger.Info("GetAvailableSlots: generated %d slots for company=%d, service=%d, date=%s",
		len(slots), req.CompanyID, req.ServiceID, req.Date.Format(domain.DateFormat))

	return &Response{
		Date:      req.Date,
		CompanyID: req.CompanyID,
		ServiceID: req.ServiceID,
		Slots:     slots,
	}, nil
}
