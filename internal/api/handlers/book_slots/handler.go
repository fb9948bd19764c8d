package book_slots

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ScheduleService/internal/api/handlers"
	bookSlots "github.com/m04kA/SMC-ScheduleService/internal/usecase/book_slots"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidTime        = "некорректный формат времени, ожидается RFC3339"
	msgInvalidInput       = "некорректные параметры бронирования"
	msgSlotsNotAvailable  = "запрошенный интервал недоступен для бронирования"
)

type Handler struct {
	useCase BookSlotsUseCase
	logger  Logger
}

func NewHandler(useCase BookSlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req BookSlotsRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest()
	if err != nil {
		h.logger.Warn("POST /bookings - Failed to parse time: %v", err)
		handlers.RespondBadRequest(w, msgInvalidTime)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, bookSlots.ErrSlotsNotAvailable):
			h.logger.Warn("POST /bookings - Slots not available: room_id=%d, surgery_id=%d", req.OperatingRoomID, req.SurgeryID)
			handlers.RespondConflict(w, msgSlotsNotAvailable)

		case errors.Is(err, bookSlots.ErrInvalidInput):
			h.logger.Warn("POST /bookings - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("POST /bookings - Failed to book slots: room_id=%d, surgery_id=%d, error=%v",
				req.OperatingRoomID, req.SurgeryID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings - Slots booked successfully: room_id=%d, surgery_id=%d, count=%d",
		req.OperatingRoomID, req.SurgeryID, len(result.Slots))
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
