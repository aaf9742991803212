// Package domain contains entity without logic, just meta-data
package domain

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// Appointment is the read-only projection of an appointment row that the
// signaling layer consumes. Writes go through the booking API, never here.
type Appointment struct {
	ID        string            `json:"id"`
	PatientID string            `json:"patient_id"`
	DoctorID  string            `json:"doctor_id"`
	Status    AppointmentStatus `json:"status"`
	RoomToken string            `json:"meeting_room_token"`
}

// Completed reports whether the appointment can no longer host a call.
func (a *Appointment) Completed() bool {
	return a.Status == StatusCompleted
}
