package book_slots

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ScheduleService/internal/domain"
	"github.com/m04kA/SMC-ScheduleService/pkg/metrics"
	"github.com/m04kA/SMC-ScheduleService/pkg/txmanager"
)

// UseCase use case для бронирования слотов операционной
type UseCase struct {
	slotRepo  SlotRepository
	txManager TransactionManager
	metrics   MetricsRecorder
	logger    Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	slotRepo SlotRepository,
	txManager TransactionManager,
	metrics MetricsRecorder,
	logger Logger,
) *UseCase {
	return &UseCase{
		slotRepo:  slotRepo,
		txManager: txManager,
		metrics:   metrics,
		logger:    logger,
	}
}

// Execute бронирует все слоты операционной, пересекающие запрошенный диапазон.
// Бронирование выполняется целиком или не выполняется вовсе
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("Book: validation failed: %v", err)
		uc.observe(metrics.BookingResultInvalid, 0)
		return nil, err
	}

	uc.logger.Info("Book: room=%d, range=%s..%s, surgery=%d",
		req.OperatingRoomID,
		req.StartTime.Format(domain.TimeFormat),
		req.EndTime.Format(domain.TimeFormat),
		req.SurgeryID,
	)

	var booked []*domain.Slot

	// 2. Проверка и захват слотов в одной сериализуемой транзакции
	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 2.1. Пересекающиеся слоты с блокировкой (FOR UPDATE)
		slots, err := uc.slotRepo.FindOverlapping(txCtx, req.OperatingRoomID, req.Range())
		if err != nil {
			return fmt.Errorf("%w: Book - find overlapping: %w", ErrInternal, err)
		}

		// 2.2. Пустой диапазон тоже конфликт: слотов под запрос нет
		if !domain.AllAvailable(slots) {
			uc.logger.Warn("Book: room=%d, %d overlapping slots, not all available", req.OperatingRoomID, len(slots))
			return ErrSlotsNotAvailable
		}

		ids := domain.SlotIDs(slots)

		// 2.3. Переводим слоты в BOOKED, только если они все еще свободны
		affected, err := uc.slotRepo.BookByIDs(txCtx, ids, req.SurgeryID)
		if err != nil {
			return fmt.Errorf("%w: Book - book slots: %w", ErrInternal, err)
		}
		if affected != int64(len(ids)) {
			uc.logger.Warn("Book: room=%d, booked %d of %d slots, concurrent booking detected",
				req.OperatingRoomID, affected, len(ids))
			return ErrSlotsNotAvailable
		}

		// 2.4. Перечитываем забронированную когорту
		booked, err = uc.slotRepo.GetByIDs(txCtx, ids)
		if err != nil {
			return fmt.Errorf("%w: Book - reload slots: %w", ErrInternal, err)
		}

		return nil
	})

	if err != nil {
		switch {
		case errors.Is(err, ErrSlotsNotAvailable):
			uc.observe(metrics.BookingResultConflict, 0)
			return nil, err
		case txmanager.IsSerializationFailure(err):
			// Конкурентная транзакция успела забронировать пересекающиеся слоты
			uc.logger.Warn("Book: room=%d, serialization failure: %v", req.OperatingRoomID, err)
			uc.observe(metrics.BookingResultConflict, 0)
			return nil, fmt.Errorf("%w: concurrent booking", ErrSlotsNotAvailable)
		case errors.Is(err, ErrInternal):
			uc.logger.Error("Book: room=%d, surgery=%d: %v", req.OperatingRoomID, req.SurgeryID, err)
			uc.observe(metrics.BookingResultError, 0)
			return nil, err
		default:
			uc.logger.Error("Book: room=%d, surgery=%d, transaction failed: %v", req.OperatingRoomID, req.SurgeryID, err)
			uc.observe(metrics.BookingResultError, 0)
			return nil, fmt.Errorf("%w: Book - transaction: %w", ErrInternal, err)
		}
	}

	uc.logger.Info("Book: surgery=%d booked %d slots in room=%d", req.SurgeryID, len(booked), req.OperatingRoomID)
	uc.observe(metrics.BookingResultBooked, len(booked))

	return &Response{Slots: booked}, nil
}

func (uc *UseCase) observe(result string, slots int) {
	if uc.metrics == nil {
		return
	}
	uc.metrics.ObserveBooking(result, slots)
}
