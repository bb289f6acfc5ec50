package transport

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"go.bug.st/serial"

	"nmea-gps-emulator/nmea"
)

// Serial writes each batch to a serial device in one blocking write, 8N1.
// Any write error is fatal: there is no recovery path for a severed line,
// so the error propagates and stops the scheduler.
type Serial struct {
	port serial.Port
	name string
}

func NewSerial(device string, baudRate int) (*Serial, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", device, err)
	}
	log.Infof("Opened serial port %s at %d baud", device, baudRate)
	return &Serial{port: port, name: device}, nil
}

func (s *Serial) Send(batch []nmea.Sentence) error {
	if _, err := s.port.Write(nmea.JoinBatch(batch)); err != nil {
		return fmt.Errorf("serial write %s: %w", s.name, err)
	}
	return nil
}

func (s *Serial) Close() error {
	return s.port.Close()
}
