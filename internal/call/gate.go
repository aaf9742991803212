package call

import (
	"fmt"

	"github.com/daktari-health/telecall/internal/domain"
)

// capabilities is what a role may do regardless of appointment ownership.
// Ownership (being the appointment's patient or doctor) is checked
// separately; adding a role without a row here grants nothing.
type capabilities struct {
	JoinAny       bool // open any room to verify/monitor
	StartAssigned bool // start a call on an appointment assigned to you
	StartAny      bool // start a call on any appointment
	End           bool
}

var roleCaps = map[domain.Role]capabilities{
	domain.RolePatient: {},
	domain.RoleDoctor:  {JoinAny: true, StartAssigned: true, End: true},
	domain.RoleAdmin:   {JoinAny: true, StartAssigned: true, StartAny: true, End: true},
}

// Gate makes the join/start/end authorization decisions. All methods are
// pure: they never touch room or participant state.
type Gate struct{}

func NewGate() *Gate { return &Gate{} }

// CanJoin allows the appointment's own patient and doctor, plus any
// clinician or admin. A completed appointment accepts no further joins.
func (g *Gate) CanJoin(appt *domain.Appointment, userID string, role domain.Role) error {
	if appt.Completed() {
		return domain.ErrAppointmentCompleted
	}
	if userID == appt.PatientID || userID == appt.DoctorID {
		return nil
	}
	if roleCaps[role].JoinAny {
		return nil
	}
	return fmt.Errorf("%w: user is not part of this appointment", domain.ErrForbidden)
}

// CanStart allows the assigned doctor, or an admin on any appointment.
// Past-dated appointments may still start; only completed blocks it.
func (g *Gate) CanStart(appt *domain.Appointment, userID string, role domain.Role) error {
	if appt.Completed() {
		return domain.ErrAppointmentCompleted
	}
	caps := roleCaps[role]
	if caps.StartAny {
		return nil
	}
	if caps.StartAssigned && userID == appt.DoctorID {
		return nil
	}
	return fmt.Errorf("%w: only the assigned doctor or an admin can start the call", domain.ErrForbidden)
}

// CanEnd has no ownership check: any connected doctor or admin may end a
// call, including one started by someone else. Deliberate policy, not an
// oversight.
func (g *Gate) CanEnd(role domain.Role) error {
	if roleCaps[role].End {
		return nil
	}
	return fmt.Errorf("%w: only a doctor or admin can end the call", domain.ErrForbidden)
}
