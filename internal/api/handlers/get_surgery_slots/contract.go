package get_surgery_slots

import (
	"context"

	"github.com/m04kA/SMC-ScheduleService/internal/service/slots/models"
)

type SlotService interface {
	GetBySurgeryID(ctx context.Context, surgeryID int64) ([]models.SlotResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
