package domain

import (
	"math"
	"time"
)

// SlotsFilter narrows the slot listing. Nil fields impose no constraint
type SlotsFilter struct {
	Status          *SlotStatus
	OperatingRoomID *int64
	StartDate       *time.Time // StartTime >= StartDate
	EndDate         *time.Time // EndTime <= EndDate
}

// Pagination page number (1-based) and page size
// Applied only when both values are positive
type Pagination struct {
	Page *int
	Size *int
}

// IsSet returns true if both page and size are positive
func (p Pagination) IsSet() bool {
	return p.Page != nil && p.Size != nil && *p.Page > 0 && *p.Size > 0
}

// MaxOffset is the largest offset PostgreSQL accepts (bigint)
const MaxOffset = uint64(math.MaxInt64)

// Offset returns the number of rows to skip, clamped to MaxOffset
func (p Pagination) Offset() uint64 {
	if !p.IsSet() {
		return 0
	}

	page := uint64(*p.Page - 1)
	size := uint64(*p.Size)
	if page != 0 && size > MaxOffset/page {
		return MaxOffset
	}
	return page * size
}

// IsPastEnd returns true if the page starts at or after row total
func (p Pagination) IsPastEnd(total int64) bool {
	return p.IsSet() && total >= 0 && p.Offset() >= uint64(total)
}

// Limit returns the page size
func (p Pagination) Limit() uint64 {
	if !p.IsSet() {
		return 0
	}
	return uint64(*p.Size)
}

// PageMeta describes a page of a listing
type PageMeta struct {
	Total    int64
	Page     int
	LastPage int
}

// NewPageMeta computes page metadata for total matching rows.
// Without pagination the whole result is a single page
func NewPageMeta(total int64, p Pagination) PageMeta {
	if !p.IsSet() {
		return PageMeta{Total: total, Page: 1, LastPage: 1}
	}

	size := int64(*p.Size)
	lastPage := total / size
	if total%size != 0 {
		lastPage++
	}
	return PageMeta{
		Total:    total,
		Page:     *p.Page,
		LastPage: int(lastPage),
	}
}

// SlotPatch is a partial update of a single slot. Nil fields are left unchanged
type SlotPatch struct {
	OperatingRoomID *int64
	StartTime       *time.Time
	EndTime         *time.Time
	Status          *SlotStatus
	SurgeryID       *int64
	ClearSurgery    bool
}

// IsEmpty returns true if the patch changes nothing
func (p SlotPatch) IsEmpty() bool {
	return p.OperatingRoomID == nil &&
		p.StartTime == nil &&
		p.EndTime == nil &&
		p.Status == nil &&
		p.SurgeryID == nil &&
		!p.ClearSurgery
}

// ApplyTo returns a copy of s with the patch applied
func (p SlotPatch) ApplyTo(s Slot) Slot {
	if p.OperatingRoomID != nil {
		s.OperatingRoomID = *p.OperatingRoomID
	}
	if p.StartTime != nil {
		s.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		s.EndTime = *p.EndTime
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.ClearSurgery {
		s.SurgeryID = nil
	} else if p.SurgeryID != nil {
		id := *p.SurgeryID
		s.SurgeryID = &id
	}
	return s
}
