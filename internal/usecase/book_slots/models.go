package book_slots

import (
	"time"

	"github.com/m04kA/SMC-ScheduleService/internal/domain"
)

// Request модель запроса на бронирование диапазона операционной
type Request struct {
	OperatingRoomID int64     // ID операционной
	StartTime       time.Time // Начало диапазона (включительно)
	EndTime         time.Time // Конец диапазона (не включительно)
	SurgeryID       int64     // ID операции, за которой закрепляются слоты
}

// Range возвращает запрошенный диапазон
func (r *Request) Range() domain.TimeRange {
	return domain.TimeRange{Start: r.StartTime, End: r.EndTime}
}

// Response модель ответа с забронированными слотами
type Response struct {
	Slots []*domain.Slot // Забронированные слоты в порядке start_time
}
