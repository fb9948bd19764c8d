package rpc

import (
	"context"

	"github.com/m04kA/SMC-ScheduleService/internal/service/slots/models"
	bookSlots "github.com/m04kA/SMC-ScheduleService/internal/usecase/book_slots"
)

// BookSlotsUseCase бронирование диапазона
type BookSlotsUseCase interface {
	Execute(ctx context.Context, req *bookSlots.Request) (*bookSlots.Response, error)
}

// SlotService операции над слотами
type SlotService interface {
	List(ctx context.Context, req *models.ListSlotsRequest) (*models.SlotListResponse, error)
	GetByID(ctx context.Context, id int64) (*models.SlotResponse, error)
	GetBySurgeryID(ctx context.Context, surgeryID int64) ([]models.SlotResponse, error)
	Update(ctx context.Context, id int64, req *models.UpdateSlotRequest) (*models.SlotResponse, error)
	Release(ctx context.Context, surgeryID int64) (*models.ReleaseResponse, error)
	ChangeStatus(ctx context.Context, req *models.ChangeStatusRequest) ([]models.SlotResponse, error)
}

// Metrics учет обработанных команд
type Metrics interface {
	ObserveRPCCommand(pattern string, ok bool)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
