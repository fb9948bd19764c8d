// Package memslots хранилище слотов в памяти для тестов.
// Повторяет контракт slot.Repository, включая его sentinel-ошибки,
// и откатывает изменения неуспешной транзакции
package memslots

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m04kA/SMC-ScheduleService/internal/domain"
	"github.com/m04kA/SMC-ScheduleService/internal/infra/storage/slot"
)

type txKey struct{}

// Store хранилище слотов в памяти
type Store struct {
	mu     sync.Mutex
	txMu   sync.Mutex
	slots  map[int64]domain.Slot
	nextID int64
	now    func() time.Time
}

// New создает пустое хранилище
func New() *Store {
	return &Store{
		slots: make(map[int64]domain.Slot),
		now:   time.Now,
	}
}

// Seed добавляет свободный слот и возвращает его ID
func (s *Store) Seed(operatingRoomID int64, start, end time.Time) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	s.slots[s.nextID] = domain.Slot{
		ID:              s.nextID,
		OperatingRoomID: operatingRoomID,
		StartTime:       start,
		EndTime:         end,
		Status:          domain.StatusAvailable,
	}
	return s.nextID
}

// Snapshot возвращает копию всех слотов по возрастанию ID
func (s *Store) Snapshot() []domain.Slot {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]domain.Slot, 0, len(s.slots))
	for _, sl := range s.slots {
		result = append(result, sl)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Do выполняет fn атомарно: транзакции выполняются по одной,
// при ошибке состояние восстанавливается
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	backup := make(map[int64]domain.Slot, len(s.slots))
	for id, sl := range s.slots {
		backup[id] = sl
	}
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.slots = backup
		s.mu.Unlock()
		return err
	}
	return nil
}

// DoSerializable то же, что Do
func (s *Store) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.Do(ctx, fn)
}

// DoReadOnly то же, что Do
func (s *Store) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.Do(ctx, fn)
}

func (s *Store) FindOverlapping(ctx context.Context, operatingRoomID int64, rng domain.TimeRange) ([]*domain.Slot, error) {
	return s.selectSlots(func(sl *domain.Slot) bool {
		return sl.OperatingRoomID == operatingRoomID && sl.Overlaps(rng)
	}), nil
}

func (s *Store) BookByIDs(ctx context.Context, ids []int64, surgeryID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var affected int64
	now := s.now()
	for _, id := range ids {
		sl, ok := s.slots[id]
		if !ok || sl.Status != domain.StatusAvailable {
			continue
		}
		sid := surgeryID
		sl.Status = domain.StatusBooked
		sl.SurgeryID = &sid
		sl.UpdatedAt = &now
		s.slots[id] = sl
		affected++
	}
	return affected, nil
}

func (s *Store) GetByIDs(ctx context.Context, ids []int64) ([]*domain.Slot, error) {
	wanted := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	return s.selectSlots(func(sl *domain.Slot) bool {
		_, ok := wanted[sl.ID]
		return ok
	}), nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*domain.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.slots[id]
	if !ok {
		return nil, slot.ErrSlotNotFound
	}
	return &sl, nil
}

func (s *Store) GetBySurgeryID(ctx context.Context, surgeryID int64) ([]*domain.Slot, error) {
	return s.selectSlots(func(sl *domain.Slot) bool {
		return sl.SurgeryID != nil && *sl.SurgeryID == surgeryID
	}), nil
}

func (s *Store) List(ctx context.Context, filter domain.SlotsFilter, page domain.Pagination) ([]*domain.Slot, error) {
	slots := s.selectSlots(func(sl *domain.Slot) bool { return matches(sl, filter) })
	if !page.IsSet() {
		return slots, nil
	}

	if page.IsPastEnd(int64(len(slots))) {
		return []*domain.Slot{}, nil
	}
	offset := int(page.Offset())
	end := len(slots)
	if limit := page.Limit(); limit < uint64(end-offset) {
		end = offset + int(limit)
	}
	return slots[offset:end], nil
}

func (s *Store) Count(ctx context.Context, filter domain.SlotsFilter) (int64, error) {
	return int64(len(s.selectSlots(func(sl *domain.Slot) bool { return matches(sl, filter) }))), nil
}

func (s *Store) Update(ctx context.Context, id int64, patch domain.SlotPatch) (*domain.Slot, error) {
	if patch.IsEmpty() {
		return nil, slot.ErrNothingToUpdate
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.slots[id]
	if !ok {
		return nil, slot.ErrSlotNotFound
	}
	updated := patch.ApplyTo(sl)
	now := s.now()
	updated.UpdatedAt = &now
	s.slots[id] = updated
	return &updated, nil
}

func (s *Store) ReleaseByIDs(ctx context.Context, ids []int64) (int64, error) {
	return s.mutateIDs(ids, func(sl *domain.Slot) {
		sl.Status = domain.StatusAvailable
		sl.SurgeryID = nil
		sl.UpdatedAt = nil
	}), nil
}

func (s *Store) UpdateStatusByIDs(ctx context.Context, ids []int64, status domain.SlotStatus) (int64, error) {
	now := s.now()
	return s.mutateIDs(ids, func(sl *domain.Slot) {
		sl.Status = status
		sl.UpdatedAt = &now
	}), nil
}

func (s *Store) mutateIDs(ids []int64, fn func(sl *domain.Slot)) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var affected int64
	for _, id := range ids {
		sl, ok := s.slots[id]
		if !ok {
			continue
		}
		fn(&sl)
		s.slots[id] = sl
		affected++
	}
	return affected
}

// selectSlots возвращает копии подходящих слотов в порядке start_time, id
func (s *Store) selectSlots(pred func(sl *domain.Slot) bool) []*domain.Slot {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*domain.Slot, 0)
	for _, sl := range s.slots {
		sl := sl
		if pred(&sl) {
			result = append(result, &sl)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartTime.Equal(result[j].StartTime) {
			return result[i].StartTime.Before(result[j].StartTime)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

func matches(sl *domain.Slot, filter domain.SlotsFilter) bool {
	if filter.Status != nil && sl.Status != *filter.Status {
		return false
	}
	if filter.OperatingRoomID != nil && sl.OperatingRoomID != *filter.OperatingRoomID {
		return false
	}
	if filter.StartDate != nil && sl.StartTime.Before(*filter.StartDate) {
		return false
	}
	if filter.EndDate != nil && sl.EndTime.After(*filter.EndDate) {
		return false
	}
	return true
}
