package slots

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/m04kA/SMC-ScheduleService/internal/domain"
	slotRepo "github.com/m04kA/SMC-ScheduleService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-ScheduleService/internal/service/slots/models"
)

// Service сервис для работы со слотами расписания
type Service struct {
	slotRepo  SlotRepository
	txManager TransactionManager
	metrics   MetricsRecorder
	logger    Logger
}

// NewService создает новый экземпляр сервиса слотов
func NewService(
	slotRepo SlotRepository,
	txManager TransactionManager,
	metrics MetricsRecorder,
	logger Logger,
) *Service {
	return &Service{
		slotRepo:  slotRepo,
		txManager: txManager,
		metrics:   metrics,
		logger:    logger,
	}
}

// List возвращает страницу слотов по фильтру
// total считается до применения пагинации, без пагинации возвращаются все слоты одной страницей
func (s *Service) List(ctx context.Context, req *models.ListSlotsRequest) (*models.SlotListResponse, error) {
	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("List: invalid filter: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	page := req.ToDomainPagination()

	s.logger.Info("List: status=%v, room=%v, page=%v, size=%v",
		orDash(req.Status), orDash(req.OperatingRoomID), orDash(req.Page), orDash(req.Size))

	var (
		total int64
		slots []*domain.Slot
	)

	// Счетчик и страница читаются из одного снимка
	err = s.txManager.DoReadOnly(ctx, func(txCtx context.Context) error {
		var err error
		total, err = s.slotRepo.Count(txCtx, filter)
		if err != nil {
			return fmt.Errorf("count slots: %w", err)
		}

		// Страница за пределами выборки пуста, запрос не нужен
		if page.IsPastEnd(total) {
			slots = nil
			return nil
		}

		slots, err = s.slotRepo.List(txCtx, filter, page)
		if err != nil {
			return fmt.Errorf("list slots: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("List: repository error: %v", err)
		return nil, fmt.Errorf("%w: List - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("List: fetched %d of %d slots", len(slots), total)
	return &models.SlotListResponse{
		Data: models.FromDomainSlots(slots),
		Meta: models.FromDomainPageMeta(domain.NewPageMeta(total, page)),
	}, nil
}

// GetByID получает слот по ID
func (s *Service) GetByID(ctx context.Context, id int64) (*models.SlotResponse, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: slotId must be positive", ErrInvalidInput)
	}

	s.logger.Info("GetByID: fetching slot id=%d", id)

	slot, err := s.slotRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			s.logger.Warn("GetByID: slot id=%d not found", id)
			return nil, ErrSlotNotFound
		}
		s.logger.Error("GetByID: repository error for slot id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	resp := models.FromDomainSlot(slot)
	return &resp, nil
}

// GetBySurgeryID возвращает все слоты, закрепленные за операцией
func (s *Service) GetBySurgeryID(ctx context.Context, surgeryID int64) ([]models.SlotResponse, error) {
	if surgeryID <= 0 {
		return nil, fmt.Errorf("%w: surgeryId must be positive", ErrInvalidInput)
	}

	s.logger.Info("GetBySurgeryID: fetching slots for surgery=%d", surgeryID)

	slots, err := s.slotRepo.GetBySurgeryID(ctx, surgeryID)
	if err != nil {
		s.logger.Error("GetBySurgeryID: repository error for surgery=%d: %v", surgeryID, err)
		return nil, fmt.Errorf("%w: GetBySurgeryID - repository error: %v", ErrInternal, err)
	}

	if len(slots) == 0 {
		s.logger.Warn("GetBySurgeryID: no slots for surgery=%d", surgeryID)
		return nil, ErrSurgeryNotFound
	}

	s.logger.Info("GetBySurgeryID: fetched %d slots for surgery=%d", len(slots), surgeryID)
	return models.FromDomainSlots(slots), nil
}

// Update применяет частичное обновление к одному слоту
// Пересечения и инварианты бронирования не проверяются: для когорт используются Book/Release
func (s *Service) Update(ctx context.Context, id int64, req *models.UpdateSlotRequest) (*models.SlotResponse, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: slotId must be positive", ErrInvalidInput)
	}

	patch, err := req.ToDomainPatch()
	if err != nil {
		s.logger.Warn("Update: invalid patch for slot id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidStatus, err)
	}
	if patch.IsEmpty() {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	if patch.SurgeryID != nil && *patch.SurgeryID <= 0 {
		return nil, fmt.Errorf("%w: surgeryId must be positive", ErrInvalidInput)
	}

	s.logger.Info("Update: updating slot id=%d", id)

	var updated *domain.Slot

	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		current, err := s.slotRepo.GetByID(txCtx, id)
		if err != nil {
			if errors.Is(err, slotRepo.ErrSlotNotFound) {
				return ErrSlotNotFound
			}
			return fmt.Errorf("%w: Update - get slot: %v", ErrInternal, err)
		}

		// Границы проверяются после слияния: патч может менять только одну из них
		merged := patch.ApplyTo(*current)
		if !merged.StartTime.Before(merged.EndTime) {
			return fmt.Errorf("%w: startTime must be before endTime", ErrInvalidTimeRange)
		}

		updated, err = s.slotRepo.Update(txCtx, id, patch)
		if err != nil {
			if errors.Is(err, slotRepo.ErrSlotNotFound) {
				return ErrSlotNotFound
			}
			return fmt.Errorf("%w: Update - update slot: %v", ErrInternal, err)
		}
		return nil
	})

	if err != nil {
		switch {
		case errors.Is(err, ErrSlotNotFound):
			s.logger.Warn("Update: slot id=%d not found", id)
		case errors.Is(err, ErrInvalidTimeRange):
			s.logger.Warn("Update: slot id=%d: %v", id, err)
		case errors.Is(err, ErrInternal):
			s.logger.Error("Update: slot id=%d: %v", id, err)
		default:
			s.logger.Error("Update: slot id=%d, transaction failed: %v", id, err)
			return nil, fmt.Errorf("%w: Update - transaction: %v", ErrInternal, err)
		}
		return nil, err
	}

	s.logger.Info("Update: successfully updated slot id=%d", id)
	resp := models.FromDomainSlot(updated)
	return &resp, nil
}

// Release возвращает все слоты операции в AVAILABLE одной транзакцией
func (s *Service) Release(ctx context.Context, surgeryID int64) (*models.ReleaseResponse, error) {
	if surgeryID <= 0 {
		return nil, fmt.Errorf("%w: surgeryId must be positive", ErrInvalidInput)
	}

	s.logger.Info("Release: releasing slots of surgery=%d", surgeryID)

	var released int64

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		// Блокируем когорту до конца транзакции
		cohort, err := s.slotRepo.GetBySurgeryID(txCtx, surgeryID)
		if err != nil {
			return fmt.Errorf("%w: Release - get cohort: %v", ErrInternal, err)
		}
		if len(cohort) == 0 {
			return ErrSurgeryNotFound
		}

		// Освобождается ровно заблокированная когорта
		released, err = s.slotRepo.ReleaseByIDs(txCtx, domain.SlotIDs(cohort))
		if err != nil {
			return fmt.Errorf("%w: Release - release cohort: %v", ErrInternal, err)
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, ErrSurgeryNotFound) {
			s.logger.Warn("Release: no slots for surgery=%d", surgeryID)
			return nil, err
		}
		s.logger.Error("Release: surgery=%d: %v", surgeryID, err)
		if errors.Is(err, ErrInternal) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: Release - transaction: %v", ErrInternal, err)
	}

	if s.metrics != nil {
		s.metrics.ObserveRelease(int(released))
	}

	s.logger.Info("Release: released %d slots of surgery=%d", released, surgeryID)
	return &models.ReleaseResponse{
		Message: fmt.Sprintf("Slots of surgery %d successfully released", surgeryID),
		Count:   released,
	}, nil
}

// ChangeStatus переводит все слоты операции в новый статус одной транзакцией
// Если вся когорта уже в этом статусе, ничего не меняется.
// Переход в AVAILABLE выполняется как освобождение: surgery_id и updated_at очищаются
func (s *Service) ChangeStatus(ctx context.Context, req *models.ChangeStatusRequest) ([]models.SlotResponse, error) {
	if req.SurgeryID <= 0 {
		return nil, fmt.Errorf("%w: surgeryId must be positive", ErrInvalidInput)
	}

	status, err := models.ToDomainSlotStatus(req.Status)
	if err != nil || !slices.Contains(domain.ChangeableStatuses, status) {
		s.logger.Warn("ChangeStatus: invalid status=%q for surgery=%d", req.Status, req.SurgeryID)
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, req.Status)
	}

	s.logger.Info("ChangeStatus: surgery=%d, status=%s", req.SurgeryID, status)

	var (
		result   []*domain.Slot
		released bool
	)

	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		cohort, err := s.slotRepo.GetBySurgeryID(txCtx, req.SurgeryID)
		if err != nil {
			return fmt.Errorf("%w: ChangeStatus - get cohort: %v", ErrInternal, err)
		}
		if len(cohort) == 0 {
			return ErrSurgeryNotFound
		}

		if domain.AllInStatus(cohort, status) {
			s.logger.Info("ChangeStatus: surgery=%d already in status=%s", req.SurgeryID, status)
			result = cohort
			return nil
		}

		if status == domain.StatusAvailable {
			if _, err := s.slotRepo.ReleaseByIDs(txCtx, domain.SlotIDs(cohort)); err != nil {
				return fmt.Errorf("%w: ChangeStatus - release cohort: %v", ErrInternal, err)
			}
			released = true
			// После освобождения когорта уже не связана с операцией
			result, err = s.slotRepo.GetByIDs(txCtx, domain.SlotIDs(cohort))
			if err != nil {
				return fmt.Errorf("%w: ChangeStatus - reload cohort: %v", ErrInternal, err)
			}
			return nil
		}

		if _, err := s.slotRepo.UpdateStatusByIDs(txCtx, domain.SlotIDs(cohort), status); err != nil {
			return fmt.Errorf("%w: ChangeStatus - update cohort: %v", ErrInternal, err)
		}
		result, err = s.slotRepo.GetByIDs(txCtx, domain.SlotIDs(cohort))
		if err != nil {
			return fmt.Errorf("%w: ChangeStatus - reload cohort: %v", ErrInternal, err)
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, ErrSurgeryNotFound) {
			s.logger.Warn("ChangeStatus: no slots for surgery=%d", req.SurgeryID)
			return nil, err
		}
		s.logger.Error("ChangeStatus: surgery=%d: %v", req.SurgeryID, err)
		if errors.Is(err, ErrInternal) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: ChangeStatus - transaction: %v", ErrInternal, err)
	}

	if released && s.metrics != nil {
		s.metrics.ObserveRelease(len(result))
	}

	s.logger.Info("ChangeStatus: surgery=%d, %d slots in status=%s", req.SurgeryID, len(result), status)
	return models.FromDomainSlots(result), nil
}

// orDash форматирует необязательный параметр для лога
func orDash[T any](p *T) interface{} {
	if p == nil {
		return "-"
	}
	return *p
}
