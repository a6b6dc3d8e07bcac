// Package errdefs defines the error classes shared across the lane
// reconfiguration engine.
//
// Callers are expected to wrap these sentinels with %w and classify with
// the Is* helpers, never by string matching.
package errdefs

import "errors"

var (
	// ErrUnsupportedSpeed signals a requested port speed that cannot be
	// realized on the lane resource. The caller must reject the
	// configuration; retrying the same input can never succeed.
	ErrUnsupportedSpeed = errors.New("unsupported speed")

	// ErrUnsupportedProfile signals a port profile absent from the
	// platform's supported-profile table.
	ErrUnsupportedProfile = errors.New("unsupported profile")

	// ErrInvalidLaneCount signals a lane count outside {1, 2, 4}. It
	// indicates malformed platform or profile data, not a transient
	// condition.
	ErrInvalidLaneCount = errors.New("invalid lane count")

	// ErrIllegalLaneAssignment signals an enabled port sitting at a
	// physical lane position incompatible with the computed lane mode.
	ErrIllegalLaneAssignment = errors.New("illegal lane assignment")

	// ErrNotFound signals a lookup miss in the port table or the
	// platform port mapping.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists signals a duplicate insert into the port table.
	ErrAlreadyExists = errors.New("already exists")
)

func IsUnsupportedSpeed(err error) bool {
	return errors.Is(err, ErrUnsupportedSpeed)
}

func IsUnsupportedProfile(err error) bool {
	return errors.Is(err, ErrUnsupportedProfile)
}

func IsInvalidLaneCount(err error) bool {
	return errors.Is(err, ErrInvalidLaneCount)
}

func IsIllegalLaneAssignment(err error) bool {
	return errors.Is(err, ErrIllegalLaneAssignment)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}
