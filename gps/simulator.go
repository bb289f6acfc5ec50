package gps

import (
	"math"
	"time"

	"github.com/pymaxion/geographiclib-go/geodesic"
)

const knotsToMetersPerSecond = 0.514444

// Ramp increments applied once per tick when a target differs from the
// current value.
const (
	courseStepDeg = 3.0
	speedStepKn   = 5.0
	altStepM      = 2.0
)

// PositionSimulator advances a UnitState along the WGS84 ellipsoid by dead
// reckoning. It is stateless; all state lives in the UnitState.
type PositionSimulator struct{}

// Advance ramps speed/course/altitude toward their targets, then moves the
// position one geodesic step: distance = speed × elapsed along the current
// course as initial bearing. A speed of zero leaves the position untouched.
// The timestamp always advances to the tick's wall-clock time.
func (PositionSimulator) Advance(state *UnitState, elapsed time.Duration, now time.Time) {
	state.rampCourse()
	state.rampSpeed()
	state.rampAltitude()

	if state.Speed > 0 && elapsed > 0 {
		distance := state.Speed * knotsToMetersPerSecond * elapsed.Seconds()
		r := geodesic.WGS84.Direct(state.Lat, state.Lon, state.Course, distance)
		state.Lat = r.Lat2
		state.Lon = normalizeLon(r.Lon2)
		// A step across a pole flips the forward azimuth. Adopt it so the
		// unit keeps moving away from the pole instead of oscillating
		// over it; for ordinary steps the commanded course is held.
		if angleDiff(state.Course, r.Azi2) > 90 {
			state.Course = normalizeCourse(r.Azi2)
			state.TargetCourse = state.Course
		}
	}
	state.Timestamp = now
}

func (s *UnitState) rampCourse() {
	// Signed shortest turn toward the target, in (-180, 180].
	diff := math.Mod(s.TargetCourse-s.Course+540, 360) - 180
	switch {
	case math.Abs(diff) <= courseStepDeg:
		s.Course = s.TargetCourse
	case diff > 0:
		s.Course = normalizeCourse(s.Course + courseStepDeg)
	default:
		s.Course = normalizeCourse(s.Course - courseStepDeg)
	}
}

func (s *UnitState) rampSpeed() {
	diff := s.TargetSpeed - s.Speed
	switch {
	case math.Abs(diff) <= speedStepKn:
		s.Speed = s.TargetSpeed
	case diff > 0:
		s.Speed += speedStepKn
	default:
		s.Speed -= speedStepKn
	}
}

func (s *UnitState) rampAltitude() {
	diff := s.TargetAlt - s.Alt
	switch {
	case math.Abs(diff) <= altStepM:
		s.Alt = s.TargetAlt
	case diff > 0:
		s.Alt += altStepM
	default:
		s.Alt -= altStepM
	}
}

func normalizeCourse(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

func normalizeLon(deg float64) float64 {
	for deg > 180 {
		deg -= 360
	}
	for deg < -180 {
		deg += 360
	}
	return deg
}

// angleDiff returns the absolute angular difference in [0, 180].
func angleDiff(a, b float64) float64 {
	d := math.Abs(math.Mod(a-b, 360))
	if d > 180 {
		d = 360 - d
	}
	return d
}
