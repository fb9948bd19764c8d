package slot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ScheduleService/internal/domain"
	"github.com/m04kA/SMC-ScheduleService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ScheduleService/pkg/psqlbuilder"
)

const tableName = "schedule_slots"

var slotColumns = []string{
	"id",
	"operating_room_id",
	"start_time",
	"end_time",
	"status",
	"surgery_id",
	"updated_at",
}

const returningColumns = "RETURNING id, operating_room_id, start_time, end_time, status, surgery_id, updated_at"

// Repository репозиторий слотов расписания операционных
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория слотов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// FindOverlapping возвращает слоты операционной, пересекающие полуоткрытый интервал rng
// (start_time < rng.End AND end_time > rng.Start), по возрастанию start_time.
// Внутри транзакции строки блокируются (FOR UPDATE), чтобы конкурентное
// бронирование пересекающегося диапазона ждало фиксации текущего
func (r *Repository) FindOverlapping(ctx context.Context, operatingRoomID int64, rng domain.TimeRange) ([]*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(slotColumns...).
		From(tableName).
		Where(squirrel.Eq{"operating_room_id": operatingRoomID}).
		Where(squirrel.Lt{"start_time": rng.End}).
		Where(squirrel.Gt{"end_time": rng.Start}).
		OrderBy("start_time ASC", "id ASC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FindOverlapping - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: FindOverlapping - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanSlots(rows)
}

// BookByIDs переводит слоты ids в BOOKED с привязкой к операции surgeryID.
// Обновляются только слоты в статусе AVAILABLE; возвращает число обновленных строк,
// вызывающий сравнивает его с len(ids)
func (r *Repository) BookByIDs(ctx context.Context, ids []int64, surgeryID int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(tableName).
		Set("status", string(domain.StatusBooked)).
		Set("surgery_id", surgeryID).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": ids}).
		Where(squirrel.Eq{"status": string(domain.StatusAvailable)}).
		ToSql()

	if err != nil {
		return 0, fmt.Errorf("%w: BookByIDs - build update query: %v", ErrBuildQuery, err)
	}

	return r.execAffected(ctx, executor, "BookByIDs", query, args)
}

// GetByIDs получает слоты по списку ID, по возрастанию start_time
func (r *Repository) GetByIDs(ctx context.Context, ids []int64) ([]*domain.Slot, error) {
	if len(ids) == 0 {
		return []*domain.Slot{}, nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(slotColumns...).
		From(tableName).
		Where(squirrel.Eq{"id": ids}).
		OrderBy("start_time ASC", "id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByIDs - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByIDs - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanSlots(rows)
}

// GetByID получает слот по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(slotColumns...).
		From(tableName).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	slot, err := scanSlot(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan slot: %w", ErrScanRow, err)
	}

	return slot, nil
}

// GetBySurgeryID получает все слоты, привязанные к операции, по возрастанию start_time.
// Внутри транзакции строки блокируются (FOR UPDATE)
func (r *Repository) GetBySurgeryID(ctx context.Context, surgeryID int64) ([]*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(slotColumns...).
		From(tableName).
		Where(squirrel.Eq{"surgery_id": surgeryID}).
		OrderBy("start_time ASC", "id ASC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetBySurgeryID - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetBySurgeryID - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanSlots(rows)
}

// List получает слоты по фильтру с опциональной пагинацией
// Пагинация применяется, только если заданы положительные page и size
//
// Примеры использования:
//
// 1. Все свободные слоты операционной:
//    status := domain.StatusAvailable
//    filter := domain.SlotsFilter{Status: &status, OperatingRoomID: ptr.Ptr(int64(3))}
//
// 2. Слоты за день, вторая страница по 10:
//    filter := domain.SlotsFilter{StartDate: &dayStart, EndDate: &dayEnd}
//    page := domain.Pagination{Page: ptr.Ptr(2), Size: ptr.Ptr(10)}
func (r *Repository) List(ctx context.Context, filter domain.SlotsFilter, page domain.Pagination) ([]*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := applyFilter(psqlbuilder.Select(slotColumns...).From(tableName), filter).
		OrderBy("start_time ASC", "id ASC")

	if page.IsSet() {
		selectBuilder = selectBuilder.Offset(page.Offset()).Limit(page.Limit())
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanSlots(rows)
}

// Count считает слоты, подходящие под фильтр (без пагинации)
func (r *Repository) Count(ctx context.Context, filter domain.SlotsFilter) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := applyFilter(psqlbuilder.Select("COUNT(*)").From(tableName), filter).ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: Count - build select query: %v", ErrBuildQuery, err)
	}

	var total int64
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("%w: Count - scan total: %w", ErrScanRow, err)
	}

	return total, nil
}

// Update применяет патч к одному слоту и возвращает обновленную строку
// Инварианты бронирования не проверяются - это задача вызывающего
func (r *Repository) Update(ctx context.Context, id int64, patch domain.SlotPatch) (*domain.Slot, error) {
	if patch.IsEmpty() {
		return nil, ErrNothingToUpdate
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	updateBuilder := psqlbuilder.Update(tableName)

	if patch.OperatingRoomID != nil {
		updateBuilder = updateBuilder.Set("operating_room_id", *patch.OperatingRoomID)
	}
	if patch.StartTime != nil {
		updateBuilder = updateBuilder.Set("start_time", *patch.StartTime)
	}
	if patch.EndTime != nil {
		updateBuilder = updateBuilder.Set("end_time", *patch.EndTime)
	}
	if patch.Status != nil {
		updateBuilder = updateBuilder.Set("status", string(*patch.Status))
	}
	if patch.ClearSurgery {
		updateBuilder = updateBuilder.Set("surgery_id", nil)
	} else if patch.SurgeryID != nil {
		updateBuilder = updateBuilder.Set("surgery_id", *patch.SurgeryID)
	}

	query, args, err := updateBuilder.
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Suffix(returningColumns).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	slot, err := scanSlot(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Update - execute update: %w", ErrExecQuery, err)
	}

	return slot, nil
}

// ReleaseByIDs возвращает слоты ids в AVAILABLE, очищая surgery_id и updated_at.
// Возвращает число освобожденных слотов
func (r *Repository) ReleaseByIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(tableName).
		Set("status", string(domain.StatusAvailable)).
		Set("surgery_id", nil).
		Set("updated_at", nil).
		Where(squirrel.Eq{"id": ids}).
		ToSql()

	if err != nil {
		return 0, fmt.Errorf("%w: ReleaseByIDs - build update query: %v", ErrBuildQuery, err)
	}

	return r.execAffected(ctx, executor, "ReleaseByIDs", query, args)
}

// UpdateStatusByIDs устанавливает статус слотам ids
func (r *Repository) UpdateStatusByIDs(ctx context.Context, ids []int64, status domain.SlotStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(tableName).
		Set("status", string(status)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": ids}).
		ToSql()

	if err != nil {
		return 0, fmt.Errorf("%w: UpdateStatusByIDs - build update query: %v", ErrBuildQuery, err)
	}

	return r.execAffected(ctx, executor, "UpdateStatusByIDs", query, args)
}

// applyFilter сужает запрос по каждому заданному полю фильтра (конъюнкция)
func applyFilter(b squirrel.SelectBuilder, filter domain.SlotsFilter) squirrel.SelectBuilder {
	if filter.Status != nil {
		b = b.Where(squirrel.Eq{"status": string(*filter.Status)})
	}
	if filter.OperatingRoomID != nil {
		b = b.Where(squirrel.Eq{"operating_room_id": *filter.OperatingRoomID})
	}
	if filter.StartDate != nil {
		b = b.Where(squirrel.GtOrEq{"start_time": *filter.StartDate})
	}
	if filter.EndDate != nil {
		b = b.Where(squirrel.LtOrEq{"end_time": *filter.EndDate})
	}
	return b
}

func (r *Repository) execAffected(ctx context.Context, executor DBExecutor, op, query string, args []interface{}) (int64, error) {
	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: %s - execute update: %w", ErrExecQuery, op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %s - get rows affected: %w", ErrExecQuery, op, err)
	}

	return rowsAffected, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSlot(row rowScanner) (*domain.Slot, error) {
	var slot domain.Slot
	var surgeryID sql.NullInt64
	var updatedAt sql.NullTime

	err := row.Scan(
		&slot.ID,
		&slot.OperatingRoomID,
		&slot.StartTime,
		&slot.EndTime,
		&slot.Status,
		&surgeryID,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if surgeryID.Valid {
		id := surgeryID.Int64
		slot.SurgeryID = &id
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		slot.UpdatedAt = &t
	}

	return &slot, nil
}

// scanSlots сканирует результаты запроса в слайс слотов
func (r *Repository) scanSlots(rows *sql.Rows) ([]*domain.Slot, error) {
	slots := make([]*domain.Slot, 0)

	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanSlots - scan row: %w", ErrScanRow, err)
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanSlots - rows error: %w", ErrScanRow, err)
	}

	return slots, nil
}
