package transport

import (
	"fmt"
	"net"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"nmea-gps-emulator/nmea"
)

const dialTimeout = 5 * time.Second

// Stream sends batches to a single configured destination. The connection
// is opened once at startup; reconnect is out of scope and restart is the
// documented recovery. A TCP write failure is fatal; UDP is fire-and-forget
// and a failed datagram is only logged.
type Stream struct {
	conn  net.Conn
	proto string
	addr  string
}

func NewStream(proto, addr string) (*Stream, error) {
	switch proto {
	case "tcp", "udp":
	default:
		return nil, fmt.Errorf("unsupported stream protocol %q", proto)
	}
	conn, err := net.DialTimeout(proto, addr, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s %s: %w", proto, addr, err)
	}
	log.Infof("Sending NMEA data - %s stream to %s", strings.ToUpper(proto), addr)
	return &Stream{conn: conn, proto: proto, addr: addr}, nil
}

func (s *Stream) Send(batch []nmea.Sentence) error {
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_, err := s.conn.Write(nmea.JoinBatch(batch))
	if err == nil {
		return nil
	}
	if s.proto == "udp" {
		log.Warnf("UDP write to %s failed: %v", s.addr, err)
		return nil
	}
	return fmt.Errorf("tcp stream write to %s: %w", s.addr, err)
}

func (s *Stream) Close() error {
	return s.conn.Close()
}
