package create_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/companyservice"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/notifyservice"
	"github.com/m04kA/SMC-AppointmentService/internal/schedule"
)

// notifyTimeout максимальное время на отправку уведомления после коммита
const notifyTimeout = 5 * time.Second

// UseCase use case создания бронирования
//
// Порядок работы:
//  1. Резолвим (лениво создаем) запись клиента
//  2. Дедупликация: повтор запроса возвращает уже созданное бронирование
//  3. Валидационный проход без записей: интервалы всех позиций вычисляются
//     чистой свёрткой и проверяются против окон приёма компании
//  4. Записывающий проход в одной сериализуемой транзакции: подбор сотрудника
//     на каждую позицию, вставка бронирований, позиций и записей журнала
//  5. После коммита - отправка подтверждения (best-effort)
type UseCase struct {
	reservationRepo    ReservationRepository
	clientRepo         ClientRepository
	historyRepo        HistoryRepository
	companyClient      CompanyServiceClient
	notifyClient       NotifyServiceClient
	txManager          TransactionManager
	timeProvider       TimeProvider
	logger             Logger
	dedupWindowSeconds int
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	reservationRepo ReservationRepository,
	clientRepo ClientRepository,
	historyRepo HistoryRepository,
	companyClient CompanyServiceClient,
	notifyClient NotifyServiceClient,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		reservationRepo:    reservationRepo,
		clientRepo:         clientRepo,
		historyRepo:        historyRepo,
		companyClient:      companyClient,
		notifyClient:       notifyClient,
		txManager:          txManager,
		timeProvider:       &RealTimeProvider{},
		logger:             logger,
		dedupWindowSeconds: domain.DefaultDedupWindowSeconds,
	}
}

// WithDedupWindow переопределяет окно дедупликации (секунды)
func (uc *UseCase) WithDedupWindow(seconds int) *UseCase {
	if seconds > 0 {
		uc.dedupWindowSeconds = seconds
	}
	return uc
}

// Execute выполняет use case создания бронирования
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: user=%d, company=%d, starts_at=%s, items=%d",
		req.ExternalUserID, req.CompanyID, req.StartsAt.Format(time.RFC3339), len(req.Items))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	now := uc.timeProvider.Now()

	// 2. Резолвим запись клиента (лениво создается при первом бронировании)
	client, err := uc.clientRepo.GetOrCreate(ctx, req.ExternalUserID)
	if err != nil {
		uc.logger.Error("CreateBooking: failed to resolve client for user=%d: %v", req.ExternalUserID, err)
		return nil, fmt.Errorf("%w: failed to resolve client: %v", ErrInternal, err)
	}

	// 3. Дедупликация повторных отправок
	duplicate, err := uc.findRecentDuplicate(ctx, client.ID, req.CompanyID, req.StartsAt, req.Items[0].ServiceID, now)
	if err != nil {
		uc.logger.Error("CreateBooking: dedup lookup failed: %v", err)
		return nil, err
	}
	if duplicate != nil {
		uc.logger.Info("CreateBooking: duplicate submission detected, returning reservation id=%d", duplicate.ID)
		return uc.dedupResponse(ctx, duplicate)
	}

	// 4. Получаем компанию с таймзоной и окнами приёма
	company, err := uc.companyClient.GetCompany(ctx, req.CompanyID)
	if err != nil {
		if errors.Is(err, companyservice.ErrCompanyNotFound) {
			uc.logger.Warn("CreateBooking: company id=%d not found", req.CompanyID)
			return nil, ErrCompanyNotFound
		}
		uc.logger.Error("CreateBooking: failed to get company id=%d: %v", req.CompanyID, err)
		return nil, fmt.Errorf("%w: failed to get company: %v", ErrInternal, err)
	}

	windows, err := company.DomainOpeningWindows()
	if err != nil {
		uc.logger.Error("CreateBooking: company id=%d has malformed opening windows: %v", req.CompanyID, err)
		return nil, fmt.Errorf("%w: malformed opening windows: %v", ErrInvalidConfiguration, err)
	}

	// 5. Получаем услуги и их длительности
	services, durations, err := uc.resolveServices(ctx, req)
	if err != nil {
		return nil, err
	}

	// 6. Вычисляем интервалы всех позиций (чистая свёртка, без записей)
	intervals := buildItemIntervals(req.StartsAt, req.Items, durations)

	// 7. Валидационный проход: каждый интервал против окон приёма
	// Прерываемся на первой ошибке - частичное создание недопустимо
	for i, iv := range intervals {
		if err := schedule.ValidateInterval(windows, company.Timezone, iv.Start, iv.DurationMinutes); err != nil {
			return nil, uc.mapScheduleError(err, req.CompanyID, i)
		}
	}

	// 8. Сотрудники компании (стабильный порядок id)
	employees, err := uc.companyClient.ListEmployees(ctx, req.CompanyID)
	if err != nil {
		uc.logger.Error("CreateBooking: failed to list employees for company id=%d: %v", req.CompanyID, err)
		return nil, fmt.Errorf("%w: failed to list employees: %v", ErrInternal, err)
	}

	// 9. Записывающий проход в одной сериализуемой транзакции
	// Любая ошибка внутри откатывает все созданные позиции
	var results []ItemResult

	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		created, txErr := uc.writeItems(txCtx, req, client, employees, services, intervals)
		if txErr != nil {
			return txErr
		}
		results = created
		return nil
	})
	if err != nil {
		uc.logger.Error("CreateBooking: transaction failed for user=%d company=%d: %v",
			req.ExternalUserID, req.CompanyID, err)
		return nil, err
	}

	fullyStaffed := true
	for _, r := range results {
		if !r.Staffed {
			fullyStaffed = false
			uc.logger.Warn("CreateBooking: reservation id=%d created unstaffed (service id=%d)",
				r.ReservationID, r.ServiceID)
		}
	}

	uc.logger.Info("CreateBooking: successfully created %d reservation(s), primary id=%d",
		len(results), results[0].ReservationID)

	// 10. Подтверждение клиенту после коммита; сбой отправки не влияет на бронирование
	uc.sendConfirmation(client.ID, results[0].ReservationID, company, results[0].StartsAt)

	return &Response{
		ReservationID: results[0].ReservationID,
		Status:        string(domain.StatusPending),
		Deduplicated:  false,
		FullyStaffed:  fullyStaffed,
		Items:         results,
	}, nil
}

// resolveServices получает услуги всех позиций и возвращает длительности, выровненные с items
func (uc *UseCase) resolveServices(ctx context.Context, req *Request) (map[int64]*companyservice.Service, []int, error) {
	services := make(map[int64]*companyservice.Service, len(req.Items))
	durations := make([]int, len(req.Items))

	for i, item := range req.Items {
		svc, ok := services[item.ServiceID]
		if !ok {
			var err error
			svc, err = uc.companyClient.GetService(ctx, req.CompanyID, item.ServiceID)
			if err != nil {
				if errors.Is(err, companyservice.ErrServiceNotFound) {
					uc.logger.Warn("CreateBooking: service id=%d not found", item.ServiceID)
					return nil, nil, ErrServiceNotFound
				}
				uc.logger.Error("CreateBooking: failed to get service id=%d: %v", item.ServiceID, err)
				return nil, nil, fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
			}
			services[item.ServiceID] = svc
		}

		if svc.DurationMinutes <= 0 {
			uc.logger.Error("CreateBooking: service id=%d has non-positive duration %d", svc.ID, svc.DurationMinutes)
			return nil, nil, fmt.Errorf("%w: service %d has invalid duration", ErrInvalidConfiguration, svc.ID)
		}

		durations[i] = svc.DurationMinutes
	}

	return services, durations, nil
}

// writeItems создает бронирование, позицию и запись журнала для каждой позиции запроса
// Вызывается только внутри транзакции
func (uc *UseCase) writeItems(
	ctx context.Context,
	req *Request,
	client *domain.Client,
	employees []companyservice.Employee,
	services map[int64]*companyservice.Service,
	intervals []itemInterval,
) ([]ItemResult, error) {
	results := make([]ItemResult, 0, len(req.Items))

	for i, item := range req.Items {
		iv := intervals[i]

		// Кандидат: сотрудник позиции, иначе общий для запроса
		candidateID := item.EmployeeID
		if candidateID == nil {
			candidateID = req.EmployeeID
		}

		allocation, err := uc.allocateEmployee(ctx, employees, item.ServiceID, candidateID, iv.Start, iv.End)
		if err != nil {
			return nil, err
		}

		rsv := &domain.Reservation{
			CompanyID:  req.CompanyID,
			ClientID:   client.ID,
			EmployeeID: allocation.EmployeeID,
			LocationID: req.LocationID,
			StartsAt:   iv.Start,
			EndsAt:     iv.End,
			Status:     domain.StatusPending,
			Notes:      req.Notes,
			Source:     req.Source,
		}
		if rsv.Source == "" {
			rsv.Source = domain.DefaultSource
		}

		created, err := uc.reservationRepo.Create(ctx, rsv)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to create reservation: %v", ErrInternal, err)
		}

		svc := services[item.ServiceID]
		price := svc.Price
		if item.Price != nil {
			price = item.Price
		}
		currency := item.Currency
		if currency == "" {
			currency = svc.Currency
		}

		resItem := &domain.ReservationItem{
			ReservationID:   created.ID,
			ServiceID:       item.ServiceID,
			EmployeeID:      allocation.EmployeeID,
			Price:           priceValue(price),
			Currency:        currency,
			DurationMinutes: iv.DurationMinutes,
		}
		if _, err := uc.reservationRepo.CreateItem(ctx, resItem); err != nil {
			return nil, fmt.Errorf("%w: failed to create reservation item: %v", ErrInternal, err)
		}

		// Запись о создании - первая запись журнала каждого бронирования
		// Сбой записи откатывает транзакцию: каждый переход обязан быть зафиксирован
		entry := &domain.StatusHistoryEntry{
			ReservationID: created.ID,
			FromStatus:    "",
			ToStatus:      domain.StatusPending,
			ChangedBy:     client.ID,
			Reason:        domain.HistoryReasonCreated,
		}
		if _, err := uc.historyRepo.Append(ctx, entry); err != nil {
			return nil, fmt.Errorf("%w: failed to append status history: %v", ErrInternal, err)
		}

		results = append(results, ItemResult{
			ReservationID:   created.ID,
			ServiceID:       item.ServiceID,
			StartsAt:        iv.Start,
			EndsAt:          iv.End,
			EmployeeID:      allocation.EmployeeID,
			Staffed:         allocation.Staffed(),
			Price:           priceValue(price),
			Currency:        currency,
			DurationMinutes: iv.DurationMinutes,
		})
	}

	return results, nil
}

// dedupResponse собирает ответ по уже существующему бронированию
func (uc *UseCase) dedupResponse(ctx context.Context, rsv *domain.Reservation) (*Response, error) {
	items, err := uc.reservationRepo.GetItemsByReservationID(ctx, rsv.ID)
	if err != nil {
		uc.logger.Error("CreateBooking: failed to load items for duplicate id=%d: %v", rsv.ID, err)
		return nil, fmt.Errorf("%w: failed to load duplicate items: %v", ErrInternal, err)
	}

	results := make([]ItemResult, 0, len(items))
	for _, item := range items {
		results = append(results, ItemResult{
			ReservationID:   rsv.ID,
			ServiceID:       item.ServiceID,
			StartsAt:        rsv.StartsAt,
			EndsAt:          rsv.EndsAt,
			EmployeeID:      item.EmployeeID,
			Staffed:         item.EmployeeID != nil,
			Price:           item.Price,
			Currency:        item.Currency,
			DurationMinutes: item.DurationMinutes,
		})
	}

	return &Response{
		ReservationID: rsv.ID,
		Status:        string(rsv.Status),
		Deduplicated:  true,
		FullyStaffed:  rsv.IsStaffed(),
		Items:         results,
	}, nil
}

// mapScheduleError переводит ошибки расписания в ошибки usecase
func (uc *UseCase) mapScheduleError(err error, companyID int64, itemIndex int) error {
	switch {
	case errors.Is(err, schedule.ErrClosedDay):
		uc.logger.Warn("CreateBooking: company id=%d is closed (item %d)", companyID, itemIndex)
		return ErrClosedDay
	case errors.Is(err, schedule.ErrOutsideHours):
		uc.logger.Warn("CreateBooking: item %d is outside opening hours of company id=%d", itemIndex, companyID)
		return ErrOutsideHours
	case errors.Is(err, schedule.ErrInvalidTimezone):
		uc.logger.Error("CreateBooking: company id=%d has invalid timezone: %v", companyID, err)
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	default:
		return fmt.Errorf("%w: schedule validation: %v", ErrInternal, err)
	}
}

// sendConfirmation отправляет подтверждение после коммита (fire-and-forget)
func (uc *UseCase) sendConfirmation(clientID, reservationID int64, company *companyservice.Company, startsAt time.Time) {
	loc, err := time.LoadLocation(company.Timezone)
	if err != nil {
		// Таймзона уже проверена валидацией; сюда попадаем только при гонке конфигурации
		loc = time.UTC
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		confirmation := &notifyservice.BookingConfirmation{
			ClientID:      clientID,
			ReservationID: reservationID,
			CompanyName:   company.Name,
			StartsAtLocal: startsAt.In(loc).Format(time.RFC3339),
		}

		if err := uc.notifyClient.SendBookingConfirmation(ctx, confirmation); err != nil {
			uc.logger.Warn("CreateBooking: confirmation delivery failed for reservation id=%d: %v", reservationID, err)
		}
	}()
}

// priceValue извлекает цену; nil трактуется как 0
func priceValue(price *float64) float64 {
	if price == nil {
		return 0.0
	}
	return *price
}
