package change_slots_status

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ScheduleService/internal/api/handlers"
	"github.com/m04kA/SMC-ScheduleService/internal/service/slots"
	"github.com/m04kA/SMC-ScheduleService/internal/service/slots/models"
)

const (
	msgInvalidSurgeryID   = "некорректный ID операции"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidStatus      = "недопустимый статус, ожидается AVAILABLE или BOOKED"
	msgSurgeryNotFound    = "за операцией не закреплено ни одного слота"
)

type Handler struct {
	service SlotService
	logger  Logger
}

func NewHandler(service SlotService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/surgeries/{surgeryId}/slots/status
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	surgeryID, err := handlers.PathInt64(r, "surgeryId")
	if err != nil {
		h.logger.Warn("PATCH /surgeries/{id}/slots/status - Invalid surgery ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidSurgeryID)
		return
	}

	var req ChangeStatusRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /surgeries/{id}/slots/status - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.ChangeStatus(r.Context(), &models.ChangeStatusRequest{
		SurgeryID: surgeryID,
		Status:    req.Status,
	})
	if err != nil {
		switch {
		case errors.Is(err, slots.ErrSurgeryNotFound):
			h.logger.Warn("PATCH /surgeries/{id}/slots/status - No slots: surgery_id=%d", surgeryID)
			handlers.RespondNotFound(w, msgSurgeryNotFound)

		case errors.Is(err, slots.ErrInvalidStatus):
			handlers.RespondBadRequest(w, msgInvalidStatus)

		case errors.Is(err, slots.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgInvalidSurgeryID)

		default:
			h.logger.Error("PATCH /surgeries/{id}/slots/status - Failed to change status: surgery_id=%d, error=%v", surgeryID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /surgeries/{id}/slots/status - Status changed: surgery_id=%d, status=%s", surgeryID, req.Status)
	handlers.RespondJSON(w, http.StatusOK, result)
}
