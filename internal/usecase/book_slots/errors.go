package book_slots

import "errors"

var (
	// ErrSlotsNotAvailable возвращается, когда в диапазоне нет слотов
	// или хотя бы один пересекающийся слот не свободен
	ErrSlotsNotAvailable = errors.New("book_slots: requested slots are not available")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("book_slots: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("book_slots: internal error")
)
