package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/daktari-health/telecall/internal/domain"
)

// MigrationAppointments is safe to execute multiple times (uses IF NOT
// EXISTS). The booking service owns the full appointments schema; this
// subset is what a fresh signaling-only deployment needs to run.
const MigrationAppointments = `
CREATE TABLE IF NOT EXISTS appointments (
    id                 TEXT PRIMARY KEY,
    patient_id         TEXT NOT NULL,
    doctor_id          TEXT NOT NULL,
    status             TEXT NOT NULL DEFAULT 'scheduled',
    meeting_room_token TEXT
);

CREATE INDEX IF NOT EXISTS idx_appointments_meeting_room_token
    ON appointments (meeting_room_token);
`

// PGStore is the PostgreSQL-backed appointment store.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Migrate applies the appointments DDL. Intended as a startup step for
// standalone deployments; no-op when the table already exists.
func (s *PGStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, MigrationAppointments); err != nil {
		return fmt.Errorf("migrate appointments: %w", err)
	}
	return nil
}

func (s *PGStore) AppointmentByID(ctx context.Context, id string) (*domain.Appointment, error) {
	const query = `SELECT id, patient_id, doctor_id, status, COALESCE(meeting_room_token, '')
FROM appointments WHERE id = $1`
	return s.queryOne(ctx, query, id)
}

func (s *PGStore) AppointmentByRoomToken(ctx context.Context, token string) (*domain.Appointment, error) {
	const query = `SELECT id, patient_id, doctor_id, status, COALESCE(meeting_room_token, '')
FROM appointments WHERE meeting_room_token = $1`
	return s.queryOne(ctx, query, token)
}

func (s *PGStore) queryOne(ctx context.Context, query, arg string) (*domain.Appointment, error) {
	var a domain.Appointment
	err := s.pool.QueryRow(ctx, query, arg).Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.Status, &a.RoomToken)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select appointment: %w", err)
	}
	return &a, nil
}
