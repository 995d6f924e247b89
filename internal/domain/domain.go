package domain

// HazardRecord is a hazard report appended by the fulfillment dispatcher.
// Field names are the JSON contract consumed by the dashboard.
type HazardRecord struct {
	ID          string `json:"id"`
	Timestamp   string `json:"timestamp" format:"date-time"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Reporter    string `json:"reporter"`
}

// AttendanceRecord captures a worker check-in or check-out.
type AttendanceRecord struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp" format:"date-time"`
	WorkerID  string `json:"worker_id"`
	Action    string `json:"action" enum:"Check-In,Check-Out"`
}

// DeliveryRecord captures a logged site delivery.
type DeliveryRecord struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp" format:"date-time"`
	OrderID   string `json:"order_id"`
	Location  string `json:"location"`
}

// Attendance actions.
const (
	ActionCheckIn  = "Check-In"
	ActionCheckOut = "Check-Out"
)
