// Package gps holds the emulator core: the simulated unit state, the
// dead-reckoning position simulator and the transmission scheduler that
// drives the 1 Hz tick.
package gps

import "time"

// UnitState is the simulated receiver state. Position is set only at
// creation and by the simulator's advance; speed, course and altitude
// additionally carry operator-requested targets that the simulator ramps
// toward one tick at a time. The scheduler owns the state and serializes
// every mutation.
type UnitState struct {
	Lat       float64 // decimal degrees, positive north
	Lon       float64 // decimal degrees, positive east
	Alt       float64 // meters above MSL
	Speed     float64 // knots
	Course    float64 // degrees true
	Timestamp time.Time

	TargetCourse float64
	TargetSpeed  float64
	TargetAlt    float64
}

// NewUnitState validates the initial parameters and returns a state with
// targets equal to the current values.
func NewUnitState(lat, lon, alt, speed, course float64, now time.Time) (*UnitState, error) {
	if lat < -90 || lat > 90 {
		return nil, ErrInvalidLatitude
	}
	if lon < -180 || lon > 180 {
		return nil, ErrInvalidLongitude
	}
	if alt < -40 || alt > 9000 {
		return nil, ErrInvalidAltitude
	}
	if speed < 0 || speed > 999 {
		return nil, ErrInvalidSpeed
	}
	if course < 0 || course >= 360 {
		return nil, ErrInvalidCourse
	}
	return &UnitState{
		Lat:          lat,
		Lon:          lon,
		Alt:          alt,
		Speed:        speed,
		Course:       course,
		Timestamp:    now,
		TargetCourse: course,
		TargetSpeed:  speed,
		TargetAlt:    alt,
	}, nil
}

// ChangeRequest asks for new course/speed/altitude targets. Nil fields
// leave the corresponding target unchanged. Position is never settable
// after creation.
type ChangeRequest struct {
	Course   *float64
	Speed    *float64
	Altitude *float64
}

// Validate rejects out-of-range values at the boundary, before they can
// reach the unit state.
func (r ChangeRequest) Validate() error {
	if r.Course != nil && (*r.Course < 0 || *r.Course >= 360) {
		return ErrInvalidCourse
	}
	if r.Speed != nil && (*r.Speed < 0 || *r.Speed > 999) {
		return ErrInvalidSpeed
	}
	if r.Altitude != nil && (*r.Altitude < -40 || *r.Altitude > 9000) {
		return ErrInvalidAltitude
	}
	return nil
}

func (s *UnitState) apply(r ChangeRequest) {
	if r.Course != nil {
		s.TargetCourse = *r.Course
	}
	if r.Speed != nil {
		s.TargetSpeed = *r.Speed
	}
	if r.Altitude != nil {
		s.TargetAlt = *r.Altitude
	}
}
