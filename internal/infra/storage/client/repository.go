package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

// Repository репозиторий записей клиентов
// Клиент создается лениво при первом бронировании по внешнему идентификатору пользователя
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория клиентов
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetOrCreate возвращает клиента по внешнему идентификатору пользователя,
// создавая запись при первом обращении. Upsert делает операцию безопасной
// при параллельных первых бронированиях одного пользователя
func (r *Repository) GetOrCreate(ctx context.Context, externalUserID int64) (*domain.Client, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("clients").
		Columns("external_user_id").
		Values(externalUserID).
		Suffix("ON CONFLICT (external_user_id) DO UPDATE SET external_user_id = EXCLUDED.external_user_id").
		Suffix("RETURNING id, external_user_id, created_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetOrCreate - build upsert query: %v", ErrBuildQuery, err)
	}

	var c domain.Client
	var createdAt sql.NullTime

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&c.ID, &c.ExternalUserID, &createdAt); err != nil {
		return nil, fmt.Errorf("%w: GetOrCreate - execute upsert: %v", ErrExecQuery, err)
	}

	c.CreatedAt = createdAt.Time

	return &c, nil
}

// GetByExternalID возвращает клиента по внешнему идентификатору пользователя
func (r *Repository) GetByExternalID(ctx context.Context, externalUserID int64) (*domain.Client, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "external_user_id", "created_at").
		From("clients").
		Where(squirrel.Eq{"external_user_id": externalUserID}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByExternalID - build select query: %v", ErrBuildQuery, err)
	}

	var c domain.Client
	var createdAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(&c.ID, &c.ExternalUserID, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrClientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByExternalID - execute select: %v", ErrExecQuery, err)
	}

	c.CreatedAt = createdAt.Time

	return &c, nil
}
