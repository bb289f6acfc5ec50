package nmea

import "math"

// Geomagnetic north pole, IGRF-13 epoch 2020.
const (
	magPoleLat = 80.65
	magPoleLon = -72.68
)

// MagneticVariation approximates the magnetic declination at a position
// as the bearing offset toward the geomagnetic pole (tilted-dipole model).
// Positive values are east of true north. The result only annotates the
// RMC and VTG magnetic fields; it is not navigation-grade.
func MagneticVariation(lat, lon float64) float64 {
	lat1 := lat * math.Pi / 180
	lat2 := magPoleLat * math.Pi / 180
	dLon := (magPoleLon - lon) * math.Pi / 180

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	decl := math.Atan2(y, x) * 180 / math.Pi

	// Bearing to the pole, normalized to [-180, 180).
	if decl >= 180 {
		decl -= 360
	} else if decl < -180 {
		decl += 360
	}
	return decl
}
