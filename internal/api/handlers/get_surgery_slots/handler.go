package get_surgery_slots

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ScheduleService/internal/api/handlers"
	"github.com/m04kA/SMC-ScheduleService/internal/service/slots"
)

const (
	msgInvalidSurgeryID = "некорректный ID операции"
	msgSurgeryNotFound  = "за операцией не закреплено ни одного слота"
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

// Handle GET /api/v1/surgeries/{surgeryId}/slots
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	surgeryID, err := handlers.PathInt64(r, "surgeryId")
	if err != nil {
		h.logger.Warn("GET /surgeries/{id}/slots - Invalid surgery ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidSurgeryID)
		return
	}

	result, err := h.service.GetBySurgeryID(r.Context(), surgeryID)
	if err != nil {
		switch {
		case errors.Is(err, slots.ErrSurgeryNotFound):
			h.logger.Warn("GET /surgeries/{id}/slots - No slots: surgery_id=%d", surgeryID)
			handlers.RespondNotFound(w, msgSurgeryNotFound)

		case errors.Is(err, slots.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgInvalidSurgeryID)

		default:
			h.logger.Error("GET /surgeries/{id}/slots - Failed to get slots: surgery_id=%d, error=%v", surgeryID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /surgeries/{id}/slots - Slots retrieved successfully: surgery_id=%d, count=%d", surgeryID, len(result))
	handlers.RespondJSON(w, http.StatusOK, result)
}
