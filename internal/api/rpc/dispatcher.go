package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/m04kA/SMC-ScheduleService/internal/service/slots"
	"github.com/m04kA/SMC-ScheduleService/internal/service/slots/models"
	bookSlots "github.com/m04kA/SMC-ScheduleService/internal/usecase/book_slots"
)

const (
	msgInvalidPayload    = "invalid payload"
	msgUnknownPattern    = "unknown pattern"
	msgSlotsNotAvailable = "requested range is not available for booking"
	msgSlotNotFound      = "slot not found"
	msgSurgeryNotFound   = "no slots found for surgery"
	msgInvalidStatus     = "invalid slot status"
	msgInvalidInput      = "invalid input data"
	msgInternalError     = "internal error"
)

type handlerFunc func(ctx context.Context, payload json.RawMessage) (interface{}, error)

// Dispatcher маршрутизирует команды по имени к use case и сервису
type Dispatcher struct {
	booker   BookSlotsUseCase
	service  SlotService
	logger   Logger
	handlers map[string]handlerFunc
}

// NewDispatcher создает диспетчер команд
func NewDispatcher(booker BookSlotsUseCase, service SlotService, logger Logger) *Dispatcher {
	d := &Dispatcher{
		booker:  booker,
		service: service,
		logger:  logger,
	}

	d.handlers = map[string]handlerFunc{
		PatternCreateShift:         d.createShift,
		PatternGetShifts:           d.getShifts,
		PatternGetShift:            d.getShift,
		PatternGetShiftBySurgeryID: d.getShiftBySurgeryID,
		PatternUpdateShift:         d.updateShift,
		PatternChangeShiftStatus:   d.changeShiftStatus,
		PatternRemoveShift:         d.removeShift,
	}

	return d
}

// Dispatch выполняет команду и всегда возвращает ответ, ошибки кодируются в нем
func (d *Dispatcher) Dispatch(ctx context.Context, env Envelope) Response {
	handle, ok := d.handlers[env.Pattern]
	if !ok {
		d.logger.Warn("RPC: unknown pattern=%q", env.Pattern)
		return errorResponse(http.StatusBadRequest, msgUnknownPattern)
	}

	data, err := handle(ctx, env.Payload)
	if err != nil {
		status, message := d.mapError(env.Pattern, err)
		return errorResponse(status, message)
	}

	return Response{OK: true, Status: http.StatusOK, Data: data}
}

func (d *Dispatcher) createShift(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	var p CreateShiftPayload
	if err := decode(payload, &p); err != nil {
		return nil, err
	}

	resp, err := d.booker.Execute(ctx, &bookSlots.Request{
		OperatingRoomID: p.OperatingRoomID,
		StartTime:       p.StartTime,
		EndTime:         p.EndTime,
		SurgeryID:       p.SurgeryID,
	})
	if err != nil {
		return nil, err
	}
	return models.FromDomainSlots(resp.Slots), nil
}

func (d *Dispatcher) getShifts(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	var p GetShiftsPayload
	if len(payload) > 0 {
		if err := decode(payload, &p); err != nil {
			return nil, err
		}
	}

	return d.service.List(ctx, &models.ListSlotsRequest{
		Status:          p.Status,
		OperatingRoomID: p.OperatingRoomID,
		StartDate:       p.StartDate,
		EndDate:         p.EndDate,
		Page:            p.Page,
		Size:            p.Size,
	})
}

func (d *Dispatcher) getShift(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	var id int64
	if err := decode(payload, &id); err != nil {
		return nil, err
	}
	return d.service.GetByID(ctx, id)
}

func (d *Dispatcher) getShiftBySurgeryID(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	var surgeryID int64
	if err := decode(payload, &surgeryID); err != nil {
		return nil, err
	}
	return d.service.GetBySurgeryID(ctx, surgeryID)
}

func (d *Dispatcher) updateShift(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	var p UpdateShiftPayload
	if err := decode(payload, &p); err != nil {
		return nil, err
	}

	return d.service.Update(ctx, p.ID, &models.UpdateSlotRequest{
		OperatingRoomID: p.OperatingRoomID,
		StartTime:       p.StartTime,
		EndTime:         p.EndTime,
		Status:          p.Status,
		SurgeryID:       p.SurgeryID,
		ClearSurgery:    p.ClearSurgery,
	})
}

func (d *Dispatcher) changeShiftStatus(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	var p ChangeShiftStatusPayload
	if err := decode(payload, &p); err != nil {
		return nil, err
	}

	return d.service.ChangeStatus(ctx, &models.ChangeStatusRequest{
		SurgeryID: p.SurgeryID,
		Status:    p.Status,
	})
}

func (d *Dispatcher) removeShift(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	var surgeryID int64
	if err := decode(payload, &surgeryID); err != nil {
		return nil, err
	}
	return d.service.Release(ctx, surgeryID)
}

// errInvalidPayload payload не разбирается в ожидаемую модель
var errInvalidPayload = errors.New("rpc: invalid payload")

func decode(payload json.RawMessage, v interface{}) error {
	if len(payload) == 0 {
		return fmt.Errorf("%w: empty payload", errInvalidPayload)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidPayload, err)
	}
	return nil
}

func (d *Dispatcher) mapError(pattern string, err error) (int, string) {
	switch {
	case errors.Is(err, errInvalidPayload):
		d.logger.Warn("RPC %s - Invalid payload: %v", pattern, err)
		return http.StatusBadRequest, msgInvalidPayload

	case errors.Is(err, bookSlots.ErrSlotsNotAvailable):
		d.logger.Warn("RPC %s - Slots not available", pattern)
		return http.StatusConflict, msgSlotsNotAvailable

	case errors.Is(err, slots.ErrSlotNotFound):
		return http.StatusNotFound, msgSlotNotFound

	case errors.Is(err, slots.ErrSurgeryNotFound):
		return http.StatusNotFound, msgSurgeryNotFound

	case errors.Is(err, slots.ErrInvalidStatus):
		return http.StatusBadRequest, msgInvalidStatus

	case errors.Is(err, bookSlots.ErrInvalidInput),
		errors.Is(err, slots.ErrInvalidInput),
		errors.Is(err, slots.ErrInvalidTimeRange):
		return http.StatusBadRequest, msgInvalidInput

	default:
		d.logger.Error("RPC %s - Failed: %v", pattern, err)
		return http.StatusInternalServerError, msgInternalError
	}
}

func errorResponse(status int, message string) Response {
	return Response{OK: false, Status: status, Error: message}
}
