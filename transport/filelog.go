package transport

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"nmea-gps-emulator/nmea"
)

// filterTypes maps the integer filter codes onto sentence types. Code 0
// means no filter.
var filterTypes = map[int]string{
	1: nmea.TypeGGA,
	2: nmea.TypeGLL,
	3: nmea.TypeRMC,
	4: nmea.TypeGSA,
	5: nmea.TypeGSV,
	6: nmea.TypeHDT,
	7: nmea.TypeVTG,
	8: nmea.TypeZDA,
}

// FilterSpec restricts which sentence types reach a FileLog. Set once at
// startup, immutable thereafter.
type FilterSpec struct {
	code int
}

func NewFilterSpec(code int) (FilterSpec, error) {
	if code < 0 || code > 8 {
		return FilterSpec{}, fmt.Errorf("filter code %d out of range 0-8", code)
	}
	return FilterSpec{code: code}, nil
}

// Match reports whether the sentence passes the filter.
func (f FilterSpec) Match(s nmea.Sentence) bool {
	if f.code == 0 {
		return true
	}
	return s.Type == filterTypes[f.code]
}

// FileLog appends matching sentences to a file, one per line. The file is
// opened once and kept open for the process lifetime; a write error (disk
// full, revoked permissions) is fatal.
type FileLog struct {
	file   *os.File
	filter FilterSpec
}

func NewFileLog(path string, filter FilterSpec) (*FileLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	log.Infof("Logging NMEA data to %s", path)
	return &FileLog{file: f, filter: filter}, nil
}

func (l *FileLog) Send(batch []nmea.Sentence) error {
	for _, s := range batch {
		if !l.filter.Match(s) {
			continue
		}
		if _, err := l.file.WriteString(s.String()); err != nil {
			return fmt.Errorf("write %s: %w", l.file.Name(), err)
		}
	}
	return nil
}

func (l *FileLog) Close() error {
	return l.file.Close()
}
