// Package nmea builds the NMEA 0183 sentence batches emitted by the
// emulator. The encoder is transmit-only: it renders unit state into the
// fixed GGA, GSA, GSV, GLL, RMC, HDT, VTG, ZDA cycle with valid checksums.
package nmea

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// TalkerID is the two-letter source code prefixing every sentence.
const TalkerID = "GP"

// Sentence type identifiers, in batch order.
const (
	TypeGGA = "GGA"
	TypeGSA = "GSA"
	TypeGSV = "GSV"
	TypeGLL = "GLL"
	TypeRMC = "RMC"
	TypeHDT = "HDT"
	TypeVTG = "VTG"
	TypeZDA = "ZDA"
)

// Sentence is a single NMEA 0183 sentence. Immutable once built; it only
// lives for the duration of one tick's batch.
type Sentence struct {
	Talker string
	Type   string
	Fields []string
}

// Payload returns everything between the leading "$" and the "*".
func (s Sentence) Payload() string {
	return s.Talker + s.Type + "," + strings.Join(s.Fields, ",")
}

// String renders the full wire form: "$<payload>*<checksum>\r\n".
func (s Sentence) String() string {
	payload := s.Payload()
	return fmt.Sprintf("$%s*%s\r\n", payload, Checksum(payload))
}

// Checksum XORs all payload bytes and returns two uppercase hex digits.
func Checksum(payload string) string {
	var sum byte
	for i := 0; i < len(payload); i++ {
		sum ^= payload[i]
	}
	return fmt.Sprintf("%02X", sum)
}

// JoinBatch concatenates a batch in wire order for a single write.
func JoinBatch(batch []Sentence) []byte {
	var b strings.Builder
	for _, s := range batch {
		b.WriteString(s.String())
	}
	return []byte(b.String())
}

// formatLat renders latitude as ddmm.mmmmm (zero-padded to 10 chars) with
// its hemisphere letter. Decimal degrees stay internal; the wire format is
// degrees and decimal minutes.
func formatLat(deg float64) (string, string) {
	hemi := "N"
	if deg < 0 {
		hemi = "S"
	}
	abs := math.Abs(deg)
	d := math.Floor(abs)
	return fmt.Sprintf("%010.5f", d*100+(abs-d)*60), hemi
}

// formatLon renders longitude as dddmm.mmmmm (zero-padded to 11 chars)
// with its hemisphere letter.
func formatLon(deg float64) (string, string) {
	hemi := "E"
	if deg < 0 {
		hemi = "W"
	}
	abs := math.Abs(deg)
	d := math.Floor(abs)
	return fmt.Sprintf("%011.5f", d*100+(abs-d)*60), hemi
}

// GGA carries centisecond time, the rest of the batch millisecond time.
func formatTimeGGA(t time.Time) string {
	return t.UTC().Format("150405.00")
}

func formatTime(t time.Time) string {
	return t.UTC().Format("150405.000")
}

func formatDate(t time.Time) string {
	return t.UTC().Format("020106")
}
