package history

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

// Repository репозиторий append-only журнала переходов статуса
// Записи только добавляются - UPDATE и DELETE по этой таблице не существует
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория журнала статусов
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Append добавляет запись о переходе статуса
// Вызывается внутри той же транзакции, что и сам переход: если запись
// в журнал не удалась, транзакция откатывается целиком - каждый переход
// обязан быть зафиксирован
func (r *Repository) Append(ctx context.Context, entry *domain.StatusHistoryEntry) (*domain.StatusHistoryEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("reservation_status_history").
		Columns(
			"reservation_id",
			"from_status",
			"to_status",
			"changed_by",
			"reason",
		).
		Values(
			entry.ReservationID,
			entry.FromStatus,
			entry.ToStatus,
			entry.ChangedBy,
			entry.Reason,
		).
		Suffix("RETURNING id, created_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Append - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&entry.ID, &createdAt); err != nil {
		return nil, fmt.Errorf("%w: Append - execute insert: %v", ErrExecQuery, err)
	}

	entry.CreatedAt = createdAt.Time

	return entry, nil
}

// ListByReservationID получает журнал бронирования в хронологическом порядке
func (r *Repository) ListByReservationID(ctx context.Context, reservationID int64) ([]*domain.StatusHistoryEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"reservation_id",
		"from_status",
		"to_status",
		"changed_by",
		"reason",
		"created_at",
	).
		From("reservation_status_history").
		Where(squirrel.Eq{"reservation_id": reservationID}).
		OrderBy("created_at ASC, id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListByReservationID - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByReservationID - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	entries := make([]*domain.StatusHistoryEntry, 0)
	for rows.Next() {
		var entry domain.StatusHistoryEntry
		var createdAt sql.NullTime

		if err := rows.Scan(
			&entry.ID,
			&entry.ReservationID,
			&entry.FromStatus,
			&entry.ToStatus,
			&entry.ChangedBy,
			&entry.Reason,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("%w: ListByReservationID - scan entry: %v", ErrScanRow, err)
		}

		entry.CreatedAt = createdAt.Time
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListByReservationID - rows error: %v", ErrScanRow, err)
	}

	return entries, nil
}
