package domain

import "time"

// SlotStatus represents the state of a schedule slot
type SlotStatus string

const (
	StatusAvailable SlotStatus = "AVAILABLE"
	StatusBooked    SlotStatus = "BOOKED"
	StatusCancelled SlotStatus = "CANCELLED"
)

// IsValid returns true if the status is one of the known slot statuses
func (s SlotStatus) IsValid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Slot is a fixed interval [StartTime, EndTime) of an operating room, the unit of booking
type Slot struct {
	ID              int64
	OperatingRoomID int64
	StartTime       time.Time
	EndTime         time.Time
	Status          SlotStatus
	SurgeryID       *int64 // set iff Status == StatusBooked
	UpdatedAt       *time.Time
}

// IsAvailable returns true if the slot can be booked
func (s *Slot) IsAvailable() bool {
	return s.Status == StatusAvailable
}

// Overlaps returns true if the slot intersects r under half-open semantics
func (s *Slot) Overlaps(r TimeRange) bool {
	return s.StartTime.Before(r.End) && s.EndTime.After(r.Start)
}

// TimeRange is a half-open interval [Start, End)
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// IsValid returns true if Start is strictly before End
func (r TimeRange) IsValid() bool {
	return !r.Start.IsZero() && !r.End.IsZero() && r.Start.Before(r.End)
}

// AllAvailable returns true if slots is non-empty and every slot is AVAILABLE
func AllAvailable(slots []*Slot) bool {
	if len(slots) == 0 {
		return false
	}
	for _, s := range slots {
		if !s.IsAvailable() {
			return false
		}
	}
	return true
}

// AllInStatus returns true if every slot has the given status
func AllInStatus(slots []*Slot, status SlotStatus) bool {
	for _, s := range slots {
		if s.Status != status {
			return false
		}
	}
	return true
}

// SlotIDs returns identifiers of the slots in the same order
func SlotIDs(slots []*Slot) []int64 {
	ids := make([]int64, 0, len(slots))
	for _, s := range slots {
		ids = append(ids, s.ID)
	}
	return ids
}
