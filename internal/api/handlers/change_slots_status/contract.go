package change_slots_status

import (
	"context"

	"github.com/m04kA/SMC-ScheduleService/internal/service/slots/models"
)

type SlotService interface {
	ChangeStatus(ctx context.Context, req *models.ChangeStatusRequest) ([]models.SlotResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
