// Package store gives the signaling layer read access to the appointment
// row-store. Everything else about appointments (booking, payment state,
// notifications) lives behind the CRUD API and is of no interest here.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/daktari-health/telecall/internal/domain"
)

// AppointmentStore is the minimal read interface the signaling core
// consumes. Lookups return domain.ErrAppointmentNotFound on a miss.
type AppointmentStore interface {
	AppointmentByID(ctx context.Context, id string) (*domain.Appointment, error)
	AppointmentByRoomToken(ctx context.Context, token string) (*domain.Appointment, error)
}

// Resolver maps an untrusted room key to an appointment. The key is
// opaque free text: it may be a meeting-room token or an appointment id,
// and both must land on the same appointment.
type Resolver struct {
	store AppointmentStore
}

func NewResolver(s AppointmentStore) *Resolver {
	return &Resolver{store: s}
}

// Resolve tries the meeting-room token first, then the appointment id.
// A UUID-shaped key flips the order as a lookup optimization only; it is
// never a security boundary, both lookups always run on a miss.
func (r *Resolver) Resolve(ctx context.Context, rawKey string) (*domain.Appointment, error) {
	key := strings.TrimSpace(rawKey)
	if key == "" {
		return nil, domain.ErrAppointmentNotFound
	}

	lookups := []func(context.Context, string) (*domain.Appointment, error){
		r.store.AppointmentByRoomToken,
		r.store.AppointmentByID,
	}
	if _, err := uuid.Parse(key); err == nil {
		lookups[0], lookups[1] = lookups[1], lookups[0]
	}

	for _, lookup := range lookups {
		appt, err := lookup(ctx, key)
		if err == nil {
			return appt, nil
		}
		if !errors.Is(err, domain.ErrAppointmentNotFound) {
			return nil, err
		}
	}
	log.Debug().Str("module", "store.resolver").Str("key", key).Msg("room key resolved to nothing")
	return nil, domain.ErrAppointmentNotFound
}
