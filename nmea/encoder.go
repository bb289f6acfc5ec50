package nmea

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
)

// antennaOffsetM is added to the computed altitude in GGA's antenna
// altitude field. Downstream parsers expect this offset; keep it.
const antennaOffsetM = 2.5

// DOP values reported in GSA are fixed constants.
const (
	pdop = "1.56"
	hdop = "0.92"
	vdop = "1.25"
)

// Encoder renders unit state into ordered sentence batches. The satellite
// data it fabricates derives from a seeded generator, so runs with the
// same seed emit identical batches.
type Encoder struct {
	rng *rand.Rand
}

func NewEncoder(seed int64) *Encoder {
	return &Encoder{rng: rand.New(rand.NewSource(seed))}
}

// Encode produces one tick's batch in the fixed order GGA, GSA, GSV (split
// four satellites per sentence), GLL, RMC, HDT, VTG, ZDA. The order is a
// compatibility contract with downstream parsers. Encode never fails: any
// out-of-range input is clamped, since a consumer expects a batch every
// second regardless.
func (e *Encoder) Encode(fix Fix) []Sentence {
	fix = fix.clamped()
	sats := constellation(e.rng)
	used := inUse(e.rng, sats)
	magvar := MagneticVariation(fix.Lat, fix.Lon)

	batch := make([]Sentence, 0, 11)
	batch = append(batch, e.gga(fix, len(used)))
	batch = append(batch, e.gsa(used))
	batch = append(batch, e.gsv(sats)...)
	batch = append(batch, e.gll(fix))
	batch = append(batch, e.rmc(fix, magvar))
	batch = append(batch, e.hdt(fix))
	batch = append(batch, e.vtg(fix, magvar))
	batch = append(batch, e.zda(fix))
	return batch
}

func (e *Encoder) gga(fix Fix, satsUsed int) Sentence {
	lat, latHemi := formatLat(fix.Lat)
	lon, lonHemi := formatLon(fix.Lon)
	return Sentence{Talker: TalkerID, Type: TypeGGA, Fields: []string{
		formatTimeGGA(fix.Time),
		lat, latHemi,
		lon, lonHemi,
		"1", // GPS fix
		fmt.Sprintf("%02d", satsUsed),
		hdop,
		fmt.Sprintf("%.1f", fix.Alt), "M",
		fmt.Sprintf("%.1f", fix.Alt+antennaOffsetM), "M",
		"", "", // DGPS age and station id: not used
	}}
}

func (e *Encoder) gsa(used []Satellite) Sentence {
	fields := []string{"A", "3"}
	for i := 0; i < 12; i++ {
		if i < len(used) {
			fields = append(fields, fmt.Sprintf("%02d", used[i].PRN))
		} else {
			fields = append(fields, "")
		}
	}
	fields = append(fields, pdop, hdop, vdop)
	return Sentence{Talker: TalkerID, Type: TypeGSA, Fields: fields}
}

func (e *Encoder) gsv(sats []Satellite) []Sentence {
	total := (len(sats) + satsPerGSV - 1) / satsPerGSV
	out := make([]Sentence, 0, total)
	for msg := 1; msg <= total; msg++ {
		fields := []string{
			strconv.Itoa(total),
			strconv.Itoa(msg),
			strconv.Itoa(len(sats)),
		}
		start := (msg - 1) * satsPerGSV
		end := start + satsPerGSV
		if end > len(sats) {
			end = len(sats)
		}
		for _, sat := range sats[start:end] {
			fields = append(fields,
				fmt.Sprintf("%02d", sat.PRN),
				fmt.Sprintf("%02d", sat.Elevation),
				fmt.Sprintf("%03d", sat.Azimuth),
				fmt.Sprintf("%02d", sat.SNR))
		}
		out = append(out, Sentence{Talker: TalkerID, Type: TypeGSV, Fields: fields})
	}
	return out
}

func (e *Encoder) gll(fix Fix) Sentence {
	lat, latHemi := formatLat(fix.Lat)
	lon, lonHemi := formatLon(fix.Lon)
	return Sentence{Talker: TalkerID, Type: TypeGLL, Fields: []string{
		lat, latHemi,
		lon, lonHemi,
		formatTime(fix.Time),
		"A", "A",
	}}
}

func (e *Encoder) rmc(fix Fix, magvar float64) Sentence {
	lat, latHemi := formatLat(fix.Lat)
	lon, lonHemi := formatLon(fix.Lon)
	return Sentence{Talker: TalkerID, Type: TypeRMC, Fields: []string{
		formatTime(fix.Time),
		"A",
		lat, latHemi,
		lon, lonHemi,
		fmt.Sprintf("%.3f", fix.Speed),
		fmt.Sprintf("%.1f", fix.Course),
		formatDate(fix.Time),
		fmt.Sprintf("%06.2f", math.Abs(magvar)),
		magvarDirection(magvar),
		"A",
	}}
}

func (e *Encoder) hdt(fix Fix) Sentence {
	return Sentence{Talker: TalkerID, Type: TypeHDT, Fields: []string{
		fmt.Sprintf("%.1f", fix.Course), "T",
	}}
}

// vtg has no FAA mode field; the original device output omits it.
func (e *Encoder) vtg(fix Fix, magvar float64) Sentence {
	magCourse := math.Mod(fix.Course-magvar+360, 360)
	return Sentence{Talker: TalkerID, Type: TypeVTG, Fields: []string{
		fmt.Sprintf("%.1f", fix.Course), "T",
		fmt.Sprintf("%.1f", magCourse), "M",
		fmt.Sprintf("%.3f", fix.Speed), "N",
		fmt.Sprintf("%.1f", fix.Speed*1.852), "K",
	}}
}

func (e *Encoder) zda(fix Fix) Sentence {
	t := fix.Time.UTC()
	return Sentence{Talker: TalkerID, Type: TypeZDA, Fields: []string{
		formatTime(fix.Time),
		fmt.Sprintf("%02d", t.Day()),
		fmt.Sprintf("%02d", int(t.Month())),
		fmt.Sprintf("%04d", t.Year()),
		"0", "0",
	}}
}

func magvarDirection(magvar float64) string {
	if magvar < 0 {
		return "W"
	}
	return "E"
}
