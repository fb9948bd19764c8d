package slots

import (
	"context"

	"github.com/m04kA/SMC-ScheduleService/internal/domain"
)

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Slot, error)
	GetBySurgeryID(ctx context.Context, surgeryID int64) ([]*domain.Slot, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*domain.Slot, error)
	List(ctx context.Context, filter domain.SlotsFilter, page domain.Pagination) ([]*domain.Slot, error)
	Count(ctx context.Context, filter domain.SlotsFilter) (int64, error)
	Update(ctx context.Context, id int64, patch domain.SlotPatch) (*domain.Slot, error)
	ReleaseByIDs(ctx context.Context, ids []int64) (int64, error)
	UpdateStatusByIDs(ctx context.Context, ids []int64, status domain.SlotStatus) (int64, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// MetricsRecorder учет освобожденных слотов
type MetricsRecorder interface {
	ObserveRelease(slots int)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
