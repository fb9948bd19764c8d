package book_slots

import "fmt"

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req == nil {
		return fmt.Errorf("%w: request is required", ErrInvalidInput)
	}

	if req.OperatingRoomID <= 0 {
		return fmt.Errorf("%w: operatingRoomId must be positive", ErrInvalidInput)
	}

	if req.SurgeryID <= 0 {
		return fmt.Errorf("%w: surgeryId must be positive", ErrInvalidInput)
	}

	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		return fmt.Errorf("%w: startTime and endTime are required", ErrInvalidInput)
	}

	if !req.Range().IsValid() {
		return fmt.Errorf("%w: startTime must be before endTime", ErrInvalidInput)
	}

	return nil
}
