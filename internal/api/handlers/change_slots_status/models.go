package change_slots_status

// ChangeStatusRequest HTTP request model
type ChangeStatusRequest struct {
	Status string `json:"status"` // AVAILABLE | BOOKED
}
