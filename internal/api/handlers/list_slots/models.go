package list_slots

import (
	"net/http"

	"github.com/m04kA/SMC-ScheduleService/internal/api/handlers"
	"github.com/m04kA/SMC-ScheduleService/internal/service/slots/models"
)

// ToServiceRequest собирает фильтр из query параметров
// Некорректные page/size означают запрос без пагинации
func ToServiceRequest(r *http.Request) (*models.ListSlotsRequest, error) {
	roomID, err := handlers.QueryInt64(r, "operatingRoomId")
	if err != nil {
		return nil, err
	}

	startDate, err := handlers.QueryTime(r, "startDate")
	if err != nil {
		return nil, err
	}

	endDate, err := handlers.QueryTime(r, "endDate")
	if err != nil {
		return nil, err
	}

	req := &models.ListSlotsRequest{
		Status:          handlers.QueryString(r, "status"),
		OperatingRoomID: roomID,
		StartDate:       startDate,
		EndDate:         endDate,
	}

	page, pageErr := handlers.QueryInt(r, "page")
	size, sizeErr := handlers.QueryInt(r, "size")
	if pageErr == nil && sizeErr == nil {
		req.Page = page
		req.Size = size
	}

	return req, nil
}
