package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ScheduleService/internal/domain"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid slot status")
)

// Request модели

// ListSlotsRequest запрос на получение списка слотов
type ListSlotsRequest struct {
	Status          *string    `json:"status,omitempty"`
	OperatingRoomID *int64     `json:"operatingRoomId,omitempty"`
	StartDate       *time.Time `json:"startDate,omitempty"` // start_time >= startDate
	EndDate         *time.Time `json:"endDate,omitempty"`   // end_time <= endDate
	Page            *int       `json:"page,omitempty"`
	Size            *int       `json:"size,omitempty"`
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *ListSlotsRequest) ToDomainFilter() (domain.SlotsFilter, error) {
	filter := domain.SlotsFilter{
		OperatingRoomID: r.OperatingRoomID,
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
	}

	if r.Status != nil {
		status, err := ToDomainSlotStatus(*r.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}

	return filter, nil
}

// ToDomainPagination конвертирует параметры страницы
func (r *ListSlotsRequest) ToDomainPagination() domain.Pagination {
	return domain.Pagination{Page: r.Page, Size: r.Size}
}

// UpdateSlotRequest частичное обновление слота
type UpdateSlotRequest struct {
	OperatingRoomID *int64     `json:"operatingRoomId,omitempty"`
	StartTime       *time.Time `json:"startTime,omitempty"`
	EndTime         *time.Time `json:"endTime,omitempty"`
	Status          *string    `json:"status,omitempty"`
	SurgeryID       *int64     `json:"surgeryId,omitempty"`
	ClearSurgery    bool       `json:"clearSurgery,omitempty"` // снять привязку к операции
}

// ToDomainPatch конвертирует request в domain патч
func (r *UpdateSlotRequest) ToDomainPatch() (domain.SlotPatch, error) {
	patch := domain.SlotPatch{
		OperatingRoomID: r.OperatingRoomID,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		SurgeryID:       r.SurgeryID,
		ClearSurgery:    r.ClearSurgery,
	}

	if r.Status != nil {
		status, err := ToDomainSlotStatus(*r.Status)
		if err != nil {
			return patch, err
		}
		patch.Status = &status
	}

	return patch, nil
}

// ChangeStatusRequest запрос на смену статуса всех слотов операции
type ChangeStatusRequest struct {
	SurgeryID int64  `json:"surgeryId"`
	Status    string `json:"status"`
}

// Response модели

// SlotResponse ответ с данными слота
type SlotResponse struct {
	ID              int64   `json:"id"`
	OperatingRoomID int64   `json:"operatingRoomId"`
	StartTime       string  `json:"startTime"` // RFC3339
	EndTime         string  `json:"endTime"`   // RFC3339
	Status          string  `json:"status"`
	SurgeryID       *int64  `json:"surgeryId"`
	UpdatedAt       *string `json:"updatedAt"`
}

// PageMetaResponse метаданные страницы
type PageMetaResponse struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	LastPage int   `json:"lastPage"`
}

// SlotListResponse страница слотов
type SlotListResponse struct {
	Data []SlotResponse   `json:"data"`
	Meta PageMetaResponse `json:"meta"`
}

// ReleaseResponse результат освобождения слотов операции
type ReleaseResponse struct {
	Message string `json:"message"`
	Count   int64  `json:"count"`
}

// Конвертеры

// ToDomainSlotStatus конвертирует строку в статус слота
func ToDomainSlotStatus(s string) (domain.SlotStatus, error) {
	status := domain.SlotStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return status, nil
}

// FromDomainSlot конвертирует domain.Slot в SlotResponse
func FromDomainSlot(s *domain.Slot) SlotResponse {
	resp := SlotResponse{
		ID:              s.ID,
		OperatingRoomID: s.OperatingRoomID,
		StartTime:       s.StartTime.Format(domain.TimeFormat),
		EndTime:         s.EndTime.Format(domain.TimeFormat),
		Status:          string(s.Status),
		SurgeryID:       s.SurgeryID,
	}

	if s.UpdatedAt != nil {
		updatedAt := s.UpdatedAt.Format(domain.TimeFormat)
		resp.UpdatedAt = &updatedAt
	}

	return resp
}

// FromDomainSlots конвертирует список слотов
func FromDomainSlots(slots []*domain.Slot) []SlotResponse {
	result := make([]SlotResponse, 0, len(slots))
	for _, s := range slots {
		result = append(result, FromDomainSlot(s))
	}
	return result
}

// FromDomainPageMeta конвертирует метаданные страницы
func FromDomainPageMeta(meta domain.PageMeta) PageMetaResponse {
	return PageMetaResponse{
		Total:    meta.Total,
		Page:     meta.Page,
		LastPage: meta.LastPage,
	}
}
