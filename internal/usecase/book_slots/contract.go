package book_slots

import (
	"context"

	"github.com/m04kA/SMC-ScheduleService/internal/domain"
)

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	FindOverlapping(ctx context.Context, operatingRoomID int64, rng domain.TimeRange) ([]*domain.Slot, error)
	BookByIDs(ctx context.Context, ids []int64, surgeryID int64) (int64, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*domain.Slot, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// MetricsRecorder учет результатов бронирования
type MetricsRecorder interface {
	ObserveBooking(result string, slots int)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
