package book_slots

import (
	"time"

	"github.com/m04kA/SMC-ScheduleService/internal/domain"
	"github.com/m04kA/SMC-ScheduleService/internal/service/slots/models"
	bookSlots "github.com/m04kA/SMC-ScheduleService/internal/usecase/book_slots"
)

// BookSlotsRequest HTTP request model
type BookSlotsRequest struct {
	OperatingRoomID int64  `json:"operatingRoomId"`
	StartTime       string `json:"startTime"` // RFC3339
	EndTime         string `json:"endTime"`   // RFC3339
	SurgeryID       int64  `json:"surgeryId"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *BookSlotsRequest) ToUseCaseRequest() (*bookSlots.Request, error) {
	startTime, err := time.Parse(domain.TimeFormat, r.StartTime)
	if err != nil {
		return nil, err
	}

	endTime, err := time.Parse(domain.TimeFormat, r.EndTime)
	if err != nil {
		return nil, err
	}

	return &bookSlots.Request{
		OperatingRoomID: r.OperatingRoomID,
		StartTime:       startTime,
		EndTime:         endTime,
		SurgeryID:       r.SurgeryID,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *bookSlots.Response) []models.SlotResponse {
	return models.FromDomainSlots(resp.Slots)
}
