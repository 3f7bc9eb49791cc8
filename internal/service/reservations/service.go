package reservations

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	storageclient "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/client"
	storagereservation "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-AppointmentService/internal/service/reservations/models"
)

// Service сервис для работы с существующими бронированиями:
// просмотр, перенос, отмена и журнал статусов
type Service struct {
	reservationRepo ReservationRepository
	clientRepo      ClientRepository
	historyRepo     HistoryRepository
	txManager       TransactionManager
	logger          Logger
}

// NewService создает новый сервис бронирований
func NewService(
	reservationRepo ReservationRepository,
	clientRepo ClientRepository,
	historyRepo HistoryRepository,
	txManager TransactionManager,
	logger Logger,
) *Service {
	return &Service{
		reservationRepo: reservationRepo,
		clientRepo:      clientRepo,
		historyRepo:     historyRepo,
		txManager:       txManager,
		logger:          logger,
	}
}

// GetByID возвращает бронирование по ID с проверкой владельца
func (s *Service) GetByID(ctx context.Context, reservationID, externalUserID int64) (*models.ReservationResponse, error) {
	rsv, err := s.loadOwned(ctx, reservationID, externalUserID)
	if err != nil {
		return nil, err
	}

	items, err := s.reservationRepo.GetItemsByReservationID(ctx, reservationID)
	if err != nil {
		s.logger.Error("[GetByID] Failed to get reservation items: reservation_id=%d, error=%v", reservationID, err)
		return nil, fmt.Errorf("%w: GetByID - get items: %v", ErrInternal, err)
	}

	return models.FromDomainReservation(rsv, items), nil
}

// GetClientReservations возвращает бронирования клиента с опциональным фильтром по статусу
func (s *Service) GetClientReservations(ctx context.Context, req *models.GetClientReservationsRequest) (*models.ReservationListResponse, error) {
	if req.ExternalUserID <= 0 {
		return nil, fmt.Errorf("%w: external user id must be positive", ErrInvalidInput)
	}

	var statusFilter *domain.ReservationStatus
	if req.Status != nil {
		status, err := models.ToDomainReservationStatus(*req.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *req.Status)
		}
		statusFilter = &status
	}

	client, err := s.clientRepo.GetByExternalID(ctx, req.ExternalUserID)
	if err != nil {
		if errors.Is(err, storageclient.ErrClientNotFound) {
			// Клиент еще ни разу не бронировал - пустой список, а не ошибка
			return &models.ReservationListResponse{Reservations: []models.ReservationResponse{}}, nil
		}
		s.logger.Error("[GetClientReservations] Failed to get client: external_user_id=%d, error=%v", req.ExternalUserID, err)
		return nil, fmt.Errorf("%w: GetClientReservations - get client: %v", ErrInternal, err)
	}

	reservations, err := s.reservationRepo.GetByClientID(ctx, client.ID, statusFilter)
	if err != nil {
		s.logger.Error("[GetClientReservations] Failed to list reservations: client_id=%d, error=%v", client.ID, err)
		return nil, fmt.Errorf("%w: GetClientReservations - list reservations: %v", ErrInternal, err)
	}

	return models.FromDomainReservationList(reservations), nil
}

// GetHistory возвращает append-only журнал статусов бронирования
func (s *Service) GetHistory(ctx context.Context, reservationID, externalUserID int64) (*models.HistoryResponse, error) {
	if _, err := s.loadOwned(ctx, reservationID, externalUserID); err != nil {
		return nil, err
	}

	entries, err := s.historyRepo.ListByReservationID(ctx, reservationID)
	if err != nil {
		s.logger.Error("[GetHistory] Failed to list history: reservation_id=%d, error=%v", reservationID, err)
		return nil, fmt.Errorf("%w: GetHistory - list history: %v", ErrInternal, err)
	}

	return models.FromDomainHistory(reservationID, entries), nil
}

// Reschedule переносит бронирование на новое время и/или меняет сотрудника.
// Длительность сохраняется: новое время окончания = новое начало + прежняя длительность.
// Перенос отмененного бронирования запрещен
func (s *Service) Reschedule(ctx context.Context, reservationID int64, req *models.RescheduleRequest) (*models.ReservationResponse, error) {
	if !req.HasChanges() {
		return nil, fmt.Errorf("%w: no fields to update", ErrInvalidInput)
	}

	rsv, err := s.loadOwned(ctx, reservationID, req.ExternalUserID)
	if err != nil {
		return nil, err
	}

	if rsv.IsCancelled() {
		return nil, ErrAlreadyCancelled
	}

	startsAt := rsv.StartsAt
	endsAt := rsv.EndsAt
	if req.StartsAt != nil {
		startsAt = *req.StartsAt
		endsAt = startsAt.Add(rsv.Duration())
	}

	employeeID := rsv.EmployeeID
	if req.EmployeeID != nil {
		employeeID = req.EmployeeID
	}

	notes := rsv.Notes
	if req.Notes != nil {
		notes = req.Notes
	}

	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		if err := s.reservationRepo.UpdateSchedule(ctx, reservationID, startsAt, endsAt, employeeID, notes); err != nil {
			return fmt.Errorf("update schedule: %w", err)
		}

		// Статус не меняется, но перенос фиксируется в журнале
		_, err := s.historyRepo.Append(ctx, &domain.StatusHistoryEntry{
			ReservationID: reservationID,
			FromStatus:    rsv.Status,
			ToStatus:      rsv.Status,
			ChangedBy:     rsv.ClientID,
			Reason:        domain.HistoryReasonModified,
		})
		if err != nil {
			return fmt.Errorf("append history: %w", err)
		}

		return nil
	})
	if err != nil {
		s.logger.Error("[Reschedule] Transaction failed: reservation_id=%d, error=%v", reservationID, err)
		return nil, fmt.Errorf("%w: Reschedule - transaction: %v", ErrInternal, err)
	}

	s.logger.Info("[Reschedule] Reservation rescheduled: reservation_id=%d, starts_at=%s", reservationID, startsAt.Format("2006-01-02T15:04:05Z07:00"))

	return s.GetByID(ctx, reservationID, req.ExternalUserID)
}

// Cancel отменяет бронирование. Повторная отмена идемпотентна:
// возвращается текущее состояние без новой записи в журнале
//
// Проверка статуса выполняется внутри транзакции под блокировкой строки,
// иначе две одновременные отмены обе прошли бы проверку и обе записали журнал
func (s *Service) Cancel(ctx context.Context, reservationID int64, req *models.CancelRequest) (*models.ReservationResponse, error) {
	var alreadyCancelled bool

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		rsv, err := s.loadOwned(ctx, reservationID, req.ExternalUserID)
		if err != nil {
			return err
		}

		if rsv.IsCancelled() {
			alreadyCancelled = true
			return nil
		}

		if err := s.reservationRepo.Cancel(ctx, reservationID, req.Reason); err != nil {
			return fmt.Errorf("%w: Cancel - cancel reservation: %v", ErrInternal, err)
		}

		_, err = s.historyRepo.Append(ctx, &domain.StatusHistoryEntry{
			ReservationID: reservationID,
			FromStatus:    rsv.Status,
			ToStatus:      domain.StatusCancelled,
			ChangedBy:     rsv.ClientID,
			Reason:        req.Reason,
		})
		if err != nil {
			return fmt.Errorf("%w: Cancel - append history: %v", ErrInternal, err)
		}

		return nil
	})
	if err != nil {
		s.logger.Error("[Cancel] Transaction failed: reservation_id=%d, error=%v", reservationID, err)
		return nil, err
	}

	if alreadyCancelled {
		s.logger.Info("[Cancel] Reservation already cancelled, no-op: reservation_id=%d", reservationID)
	} else {
		s.logger.Info("[Cancel] Reservation cancelled: reservation_id=%d, reason=%s", reservationID, req.Reason)
	}

	return s.GetByID(ctx, reservationID, req.ExternalUserID)
}

// loadOwned загружает бронирование и проверяет, что оно принадлежит клиенту
func (s *Service) loadOwned(ctx context.Context, reservationID, externalUserID int64) (*domain.Reservation, error) {
	if reservationID <= 0 {
		return nil, fmt.Errorf("%w: reservation id must be positive", ErrInvalidInput)
	}
	if externalUserID <= 0 {
		return nil, fmt.Errorf("%w: external user id must be positive", ErrInvalidInput)
	}

	rsv, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, storagereservation.ErrReservationNotFound) {
			return nil, ErrReservationNotFound
		}
		s.logger.Error("[loadOwned] Failed to get reservation: reservation_id=%d, error=%v", reservationID, err)
		return nil, fmt.Errorf("%w: loadOwned - get reservation: %v", ErrInternal, err)
	}

	client, err := s.clientRepo.GetByExternalID(ctx, externalUserID)
	if err != nil {
		if errors.Is(err, storageclient.ErrClientNotFound) {
			return nil, ErrAccessDenied
		}
		s.logger.Error("[loadOwned] Failed to get client: external_user_id=%d, error=%v", externalUserID, err)
		return nil, fmt.Errorf("%w: loadOwned - get client: %v", ErrInternal, err)
	}

	if rsv.ClientID != client.ID {
		s.logger.Warn("[loadOwned] Access denied: reservation_id=%d, owner_client_id=%d, requester_client_id=%d", reservationID, rsv.ClientID, client.ID)
		return nil, ErrAccessDenied
	}

	return rsv, nil
}
