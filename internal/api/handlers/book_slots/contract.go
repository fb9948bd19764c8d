package book_slots

import (
	"context"

	bookSlots "github.com/m04kA/SMC-ScheduleService/internal/usecase/book_slots"
)

type BookSlotsUseCase interface {
	Execute(ctx context.Context, req *bookSlots.Request) (*bookSlots.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
