package booking

import (
	"fmt"
	"slices"

	"github.com/localink/localink/internal/domain"
)

// allowedSources lists, per role and target status, the statuses a booking
// may be in for that role to move it to the target. CONFIRMED -> CANCELLED
// is absent: guides may not cancel and tourists may cancel only while PENDING.
var allowedSources = map[domain.Role]map[domain.BookingStatus][]domain.BookingStatus{
	domain.RoleGuide: {
		domain.BookingStatusConfirmed: {domain.BookingStatusPending},
		domain.BookingStatusCompleted: {domain.BookingStatusConfirmed},
	},
	domain.RoleTourist: {
		domain.BookingStatusCancelled: {domain.BookingStatusPending},
	},
}

func checkTransition(role domain.Role, from, to domain.BookingStatus) error {
	if from.Terminal() {
		return fmt.Errorf("%w: booking is already %s", domain.ErrInvalidTransition, from)
	}
	if from == to {
		return fmt.Errorf("%w: booking is already %s", domain.ErrInvalidTransition, from)
	}
	sources, ok := allowedSources[role][to]
	if !ok {
		return fmt.Errorf("%w: %s may not set status %s", domain.ErrInvalidTransition, role, to)
	}
	if !slices.Contains(sources, from) {
		return fmt.Errorf("%w: cannot move booking from %s to %s", domain.ErrInvalidTransition, from, to)
	}
	return nil
}

func authorize(actor domain.Actor, b *domain.Booking) error {
	switch actor.Role {
	case domain.RoleGuide:
		if b.Tour.GuideID == actor.ID {
			return nil
		}
		return fmt.Errorf("%w: you can only update bookings for your own tours", domain.ErrForbidden)
	case domain.RoleTourist:
		if b.TouristID == actor.ID {
			return nil
		}
		return fmt.Errorf("%w: you can only update your own bookings", domain.ErrForbidden)
	}
	return fmt.Errorf("%w: unknown role %q", domain.ErrForbidden, actor.Role)
}
