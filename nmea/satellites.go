package nmea

import "math/rand"

const (
	constellationSize = 15
	satsPerGSV        = 4
)

// Satellite is a fabricated GPS satellite. It exists only to populate the
// GSA/GSV fields of one batch; there is no identity across ticks.
type Satellite struct {
	PRN       int // 1-32
	Elevation int // degrees above horizon, 0-90
	Azimuth   int // degrees from true north, 0-359
	SNR       int // dB, 0-99
}

// constellation fabricates the satellite set for one batch. PRNs are drawn
// from 1-32 without repeats. Values satisfy the GSV field ranges and make
// no claim of orbital realism.
func constellation(rng *rand.Rand) []Satellite {
	prns := rng.Perm(32)
	sats := make([]Satellite, constellationSize)
	for i := range sats {
		sats[i] = Satellite{
			PRN:       prns[i] + 1,
			Elevation: rng.Intn(91),
			Azimuth:   rng.Intn(360),
			SNR:       rng.Intn(100),
		}
	}
	return sats
}

// inUse selects the 4-12 satellites reported as used in the fix by GSA and
// counted by GGA.
func inUse(rng *rand.Rand, sats []Satellite) []Satellite {
	n := 4 + rng.Intn(9)
	picks := rng.Perm(len(sats))[:n]
	used := make([]Satellite, n)
	for i, p := range picks {
		used[i] = sats[p]
	}
	return used
}
