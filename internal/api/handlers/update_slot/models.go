package update_slot

import (
	"time"

	"github.com/m04kA/SMC-ScheduleService/internal/domain"
	"github.com/m04kA/SMC-ScheduleService/internal/service/slots/models"
)

// UpdateSlotRequest HTTP request model, все поля опциональны
type UpdateSlotRequest struct {
	OperatingRoomID *int64  `json:"operatingRoomId,omitempty"`
	StartTime       *string `json:"startTime,omitempty"` // RFC3339
	EndTime         *string `json:"endTime,omitempty"`   // RFC3339
	Status          *string `json:"status,omitempty"`
	SurgeryID       *int64  `json:"surgeryId,omitempty"`
	ClearSurgery    bool    `json:"clearSurgery,omitempty"`
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *UpdateSlotRequest) ToServiceRequest() (*models.UpdateSlotRequest, error) {
	req := &models.UpdateSlotRequest{
		OperatingRoomID: r.OperatingRoomID,
		Status:          r.Status,
		SurgeryID:       r.SurgeryID,
		ClearSurgery:    r.ClearSurgery,
	}

	if r.StartTime != nil {
		startTime, err := time.Parse(domain.TimeFormat, *r.StartTime)
		if err != nil {
			return nil, err
		}
		req.StartTime = &startTime
	}

	if r.EndTime != nil {
		endTime, err := time.Parse(domain.TimeFormat, *r.EndTime)
		if err != nil {
			return nil, err
		}
		req.EndTime = &endTime
	}

	return req, nil
}
