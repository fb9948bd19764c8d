package rpc

import (
	"encoding/json"
	"time"
)

// Имена команд
const (
	PatternCreateShift         = "create_shift"
	PatternGetShifts           = "get_shifts"
	PatternGetShift            = "get_shift"
	PatternGetShiftBySurgeryID = "get_shift_by_surgery_id"
	PatternUpdateShift         = "update_shift"
	PatternChangeShiftStatus   = "change_shift_status"
	PatternRemoveShift         = "remove_shift"
)

// Envelope входящая команда
type Envelope struct {
	Pattern string          `json:"pattern"`
	Payload json.RawMessage `json:"payload"`
}

// Response ответ на команду, status повторяет семантику HTTP кодов
type Response struct {
	OK     bool        `json:"ok"`
	Status int         `json:"status"`
	Error  string      `json:"error,omitempty"`
	Data   interface{} `json:"data,omitempty"`
}

// CreateShiftPayload бронирование диапазона операционной
type CreateShiftPayload struct {
	OperatingRoomID int64     `json:"operatingRoomId"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	SurgeryID       int64     `json:"surgeryId"`
}

// GetShiftsPayload фильтр и пагинация списка
type GetShiftsPayload struct {
	Status          *string    `json:"status,omitempty"`
	OperatingRoomID *int64     `json:"operatingRoomId,omitempty"`
	StartDate       *time.Time `json:"startDate,omitempty"`
	EndDate         *time.Time `json:"endDate,omitempty"`
	Page            *int       `json:"page,omitempty"`
	Size            *int       `json:"size,omitempty"`
}

// UpdateShiftPayload частичное обновление слота id
type UpdateShiftPayload struct {
	ID              int64      `json:"id"`
	OperatingRoomID *int64     `json:"operatingRoomId,omitempty"`
	StartTime       *time.Time `json:"startTime,omitempty"`
	EndTime         *time.Time `json:"endTime,omitempty"`
	Status          *string    `json:"status,omitempty"`
	SurgeryID       *int64     `json:"surgeryId,omitempty"`
	ClearSurgery    bool       `json:"clearSurgery,omitempty"`
}

// ChangeShiftStatusPayload смена статуса когорты операции
type ChangeShiftStatusPayload struct {
	SurgeryID int64  `json:"surgeryId"`
	Status    string `json:"status"`
}
