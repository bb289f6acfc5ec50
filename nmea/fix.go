package nmea

import (
	"math"
	"time"
)

// Fix is the encoder's view of the unit state for one tick.
type Fix struct {
	Lat    float64 // decimal degrees, positive north
	Lon    float64 // decimal degrees, positive east
	Alt    float64 // meters above MSL
	Speed  float64 // knots
	Course float64 // degrees true
	Time   time.Time
}

// clamped forces every field into its wire range. The simulator keeps the
// state normalized already; clamping here is what lets Encode never fail.
func (f Fix) clamped() Fix {
	f.Lat = clampRange(f.Lat, -90, 90)
	f.Lon = clampRange(f.Lon, -180, 180)
	f.Alt = clampRange(f.Alt, -40, 9000)
	f.Speed = clampRange(f.Speed, 0, 999)
	f.Course = math.Mod(math.Mod(f.Course, 360)+360, 360)
	return f
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
