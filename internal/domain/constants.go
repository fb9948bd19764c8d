package domain

import "time"

// Time format of slot boundaries on the wire
const TimeFormat = time.RFC3339

// AllStatuses lists every known slot status
var AllStatuses = []SlotStatus{
	StatusAvailable,
	StatusBooked,
	StatusCancelled,
}

// ChangeableStatuses lists statuses a surgery cohort can be moved to
var ChangeableStatuses = []SlotStatus{
	StatusAvailable,
	StatusBooked,
}
