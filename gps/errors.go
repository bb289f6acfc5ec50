package gps

import "errors"

// Common errors returned by the emulator core
var (
	ErrInvalidLatitude  = errors.New("latitude must be between -90 and 90 degrees")
	ErrInvalidLongitude = errors.New("longitude must be between -180 and 180 degrees")
	ErrInvalidAltitude  = errors.New("altitude must be between -40 and 9000 meters")
	ErrInvalidSpeed     = errors.New("speed must be between 0 and 999 knots")
	ErrInvalidCourse    = errors.New("course must be between 0.0 and 359.9 degrees")
	ErrInvalidBaudRate  = errors.New("baud rate must be positive")
	ErrInvalidFilter    = errors.New("filter code must be between 0 and 8")
	ErrInvalidOutput    = errors.New("output must be one of serial, tcp-server, stream, file")
	ErrInvalidProtocol  = errors.New("stream protocol must be tcp or udp")

	ErrSchedulerAlreadyRunning = errors.New("scheduler is already running")
	ErrSchedulerStopped        = errors.New("scheduler is stopped")
	ErrChangeBacklog           = errors.New("change request queue is full")
)
