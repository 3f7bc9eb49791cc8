package reservation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

// reservationColumns полный список колонок таблицы reservations
var reservationColumns = []string{
	"id",
	"company_id",
	"client_id",
	"employee_id",
	"location_id",
	"starts_at",
	"ends_at",
	"status",
	"notes",
	"source",
	"cancellation_reason",
	"cancelled_at",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с бронированиями и их позициями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новое бронирование
// Если в контексте передана активная транзакция (через context.Value), использует её -
// при мультисервисном запросе все связанные бронирования создаются атомарно
func (r *Repository) Create(ctx context.Context, rsv *domain.Reservation) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("reservations").
		Columns(
			"company_id",
			"client_id",
			"employee_id",
			"location_id",
			"starts_at",
			"ends_at",
			"status",
			"notes",
			"source",
		).
		Values(
			rsv.CompanyID,
			rsv.ClientID,
			rsv.EmployeeID,
			rsv.LocationID,
			rsv.StartsAt,
			rsv.EndsAt,
			rsv.Status,
			rsv.Notes,
			rsv.Source,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&rsv.ID,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	rsv.CreatedAt = createdAt.Time
	rsv.UpdatedAt = updatedAt.Time

	return rsv, nil
}

// CreateItem создает позицию бронирования (услуга, цена, длительность)
func (r *Repository) CreateItem(ctx context.Context, item *domain.ReservationItem) (*domain.ReservationItem, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("reservation_items").
		Columns(
			"reservation_id",
			"service_id",
			"employee_id",
			"price",
			"currency",
			"duration_minutes",
		).
		Values(
			item.ReservationID,
			item.ServiceID,
			item.EmployeeID,
			item.Price,
			item.Currency,
			item.DurationMinutes,
		).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: CreateItem - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&item.ID); err != nil {
		return nil, fmt.Errorf("%w: CreateItem - execute insert: %v", ErrExecQuery, err)
	}

	return item, nil
}

// GetByID получает бронирование по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(reservationColumns...).
		From("reservations").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	rsv, err := r.scanReservation(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan reservation: %v", ErrScanRow, err)
	}

	return rsv, nil
}

// GetItemsByReservationID получает позиции бронирования в порядке создания
func (r *Repository) GetItemsByReservationID(ctx context.Context, reservationID int64) ([]*domain.ReservationItem, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"reservation_id",
		"service_id",
		"employee_id",
		"price",
		"currency",
		"duration_minutes",
	).
		From("reservation_items").
		Where(squirrel.Eq{"reservation_id": reservationID}).
		OrderBy("id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetItemsByReservationID - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetItemsByReservationID - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	items := make([]*domain.ReservationItem, 0)
	for rows.Next() {
		var item domain.ReservationItem
		if err := rows.Scan(
			&item.ID,
			&item.ReservationID,
			&item.ServiceID,
			&item.EmployeeID,
			&item.Price,
			&item.Currency,
			&item.DurationMinutes,
		); err != nil {
			return nil, fmt.Errorf("%w: GetItemsByReservationID - scan item: %v", ErrScanRow, err)
		}
		items = append(items, &item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetItemsByReservationID - rows error: %v", ErrScanRow, err)
	}

	return items, nil
}

// GetByClientID получает бронирования клиента, опционально фильтруя по статусу
func (r *Repository) GetByClientID(ctx context.Context, clientID int64, status *domain.ReservationStatus) ([]*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(reservationColumns...).
		From("reservations").
		Where(squirrel.Eq{"client_id": clientID}).
		OrderBy("starts_at DESC")

	if status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *status})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByClientID - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByClientID - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanReservations(rows)
}

// FindDuplicate ищет недавнее активное бронирование клиента в той же компании,
// начало которого попадает в интервал [startFrom, startTo], созданное после createdAfter,
// с той же первой услугой. Используется дедупликацией повторных отправок
// (double click, ретрай сети). Возвращает ErrReservationNotFound, если дубля нет
func (r *Repository) FindDuplicate(
	ctx context.Context,
	clientID int64,
	companyID int64,
	startFrom time.Time,
	startTo time.Time,
	createdAfter time.Time,
	firstServiceID int64,
) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	columns := make([]string, len(reservationColumns))
	for i, c := range reservationColumns {
		columns[i] = "r." + c
	}

	query, args, err := psqlbuilder.Select(columns...).
		From("reservations r").
		Join("reservation_items i ON i.reservation_id = r.id").
		Where(squirrel.Eq{"r.client_id": clientID}).
		Where(squirrel.Eq{"r.company_id": companyID}).
		Where(squirrel.Eq{"r.status": statusStrings(domain.ActiveStatuses)}).
		Where(squirrel.GtOrEq{"r.starts_at": startFrom}).
		Where(squirrel.LtOrEq{"r.starts_at": startTo}).
		Where(squirrel.GtOrEq{"r.created_at": createdAfter}).
		Where(squirrel.Eq{"i.service_id": firstServiceID}).
		OrderBy("r.created_at DESC").
		Limit(1).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: FindDuplicate - build select query: %v", ErrBuildQuery, err)
	}

	rsv, err := r.scanReservation(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: FindDuplicate - scan reservation: %v", ErrScanRow, err)
	}

	return rsv, nil
}

// CountOverlapping считает активные бронирования сотрудника, пересекающиеся
// с интервалом [start, end). Полуоткрытые интервалы: соприкасающиеся границы
// пересечением не считаются
//
// Внутри транзакции строки блокируются (FOR UPDATE), чтобы параллельный запрос
// не прошёл ту же проверку до коммита
func (r *Repository) CountOverlapping(ctx context.Context, employeeID int64, start, end time.Time) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select("id").
		From("reservations").
		Where(squirrel.Eq{"employee_id": employeeID}).
		Where(squirrel.Eq{"status": statusStrings(domain.ActiveStatuses)}).
		Where(squirrel.Lt{"starts_at": end}).
		Where(squirrel.Gt{"ends_at": start})

	// FOR UPDATE несовместим с агрегатами, поэтому выбираем id и считаем строки
	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: CountOverlapping - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: CountOverlapping - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return 0, fmt.Errorf("%w: CountOverlapping - scan id: %v", ErrScanRow, err)
		}
		count++
	}

	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("%w: CountOverlapping - rows error: %v", ErrScanRow, err)
	}

	return count, nil
}

// GetActiveByCompanyAndRange получает активные бронирования компании,
// пересекающиеся с интервалом [from, to). Используется подсчётом доступных слотов
func (r *Repository) GetActiveByCompanyAndRange(ctx context.Context, companyID int64, from, to time.Time) ([]*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(reservationColumns...).
		From("reservations").
		Where(squirrel.Eq{"company_id": companyID}).
		Where(squirrel.Eq{"status": statusStrings(domain.ActiveStatuses)}).
		Where(squirrel.Lt{"starts_at": to}).
		Where(squirrel.Gt{"ends_at": from}).
		OrderBy("starts_at ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetActiveByCompanyAndRange - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetActiveByCompanyAndRange - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanReservations(rows)
}

// UpdateSchedule обновляет изменяемые при переносе поля бронирования
func (r *Repository) UpdateSchedule(
	ctx context.Context,
	id int64,
	startsAt time.Time,
	endsAt time.Time,
	employeeID *int64,
	notes *string,
) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	updateBuilder := psqlbuilder.Update("reservations").
		Set("starts_at", startsAt).
		Set("ends_at", endsAt).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id})

	if employeeID != nil {
		updateBuilder = updateBuilder.Set("employee_id", *employeeID)
	}
	if notes != nil {
		updateBuilder = updateBuilder.Set("notes", *notes)
	}

	query, args, err := updateBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateSchedule - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateSchedule - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateSchedule - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrReservationNotFound
	}

	return nil
}

// Cancel отменяет бронирование с указанием причины
// Физического удаления нет - отмена является переходом статуса
func (r *Repository) Cancel(ctx context.Context, id int64, reason string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("reservations").
		Set("status", domain.StatusCancelled).
		Set("cancellation_reason", reason).
		Set("cancelled_at", squirrel.Expr("NOW()")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Cancel - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Cancel - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Cancel - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrReservationNotFound
	}

	return nil
}

// rowScanner общий интерфейс *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanReservation сканирует одну строку в бронирование
func (r *Repository) scanReservation(row rowScanner) (*domain.Reservation, error) {
	var rsv domain.Reservation
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&rsv.ID,
		&rsv.CompanyID,
		&rsv.ClientID,
		&rsv.EmployeeID,
		&rsv.LocationID,
		&rsv.StartsAt,
		&rsv.EndsAt,
		&rsv.Status,
		&rsv.Notes,
		&rsv.Source,
		&rsv.CancellationReason,
		&rsv.CancelledAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	rsv.CreatedAt = createdAt.Time
	rsv.UpdatedAt = updatedAt.Time

	return &rsv, nil
}

// scanReservations сканирует результаты запроса в слайс бронирований
func (r *Repository) scanReservations(rows *sql.Rows) ([]*domain.Reservation, error) {
	reservations := make([]*domain.Reservation, 0)

	for rows.Next() {
		rsv, err := r.scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanReservations - scan row: %v", ErrScanRow, err)
		}
		reservations = append(reservations, rsv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanReservations - rows error: %v", ErrScanRow, err)
	}

	return reservations, nil
}

// statusStrings конвертирует статусы в строки для squirrel.Eq
func statusStrings(statuses []domain.ReservationStatus) []string {
	result := make([]string, len(statuses))
	for i, s := range statuses {
		result[i] = string(s)
	}
	return result
}
