// Package transport fans encoded sentence batches out to the configured
// sink: a serial line, a broadcasting TCP server, an outbound TCP/UDP
// stream, or a filtered log file. Each sink implements the same Send/Close
// capability; Send returns nil while the sink can keep going and an error
// when the transport is unusable (which stops the scheduler). Recoverable
// conditions are logged and absorbed here.
package transport

import (
	"time"

	"nmea-gps-emulator/nmea"
)

// Dispatcher is satisfied by every transport in this package. It mirrors
// the capability the scheduler consumes.
type Dispatcher interface {
	Send(batch []nmea.Sentence) error
	Close() error
}

// writeTimeout bounds each network write so a hung peer cannot stall the
// broadcast of other clients or the next tick.
const writeTimeout = 500 * time.Millisecond
