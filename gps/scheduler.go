package gps

import (
	"context"
	"sync"
	"time"

	"nmea-gps-emulator/nmea"
)

// Dispatcher is the sink side of the tick. A nil error from Send means the
// transport can keep going; a non-nil error is a fatal transport failure
// and stops the scheduler. Recoverable conditions (a lost TCP-server
// client, a failed UDP datagram) are absorbed inside the transport.
type Dispatcher interface {
	Send(batch []nmea.Sentence) error
	Close() error
}

// State of the scheduler's Idle → Running → Stopped machine.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

// TransmissionScheduler drives the periodic tick: drain pending change
// requests, advance the unit state, encode the batch, dispatch it exactly
// once. Ticks are aligned to wall-clock multiples of the interval, so a
// slow transport cannot accumulate drift.
type TransmissionScheduler struct {
	mu    sync.Mutex
	state State
	err   error

	unit     *UnitState
	sim      PositionSimulator
	enc      *nmea.Encoder
	disp     Dispatcher
	interval time.Duration

	changes  chan ChangeRequest
	cancel   context.CancelFunc
	done     chan struct{}
	doneOnce sync.Once
}

// NewScheduler wires the simulator, encoder and dispatcher together. An
// interval of zero or less defaults to one second.
func NewScheduler(unit *UnitState, enc *nmea.Encoder, disp Dispatcher, interval time.Duration) *TransmissionScheduler {
	if interval <= 0 {
		interval = time.Second
	}
	return &TransmissionScheduler{
		unit:     unit,
		enc:      enc,
		disp:     disp,
		interval: interval,
		changes:  make(chan ChangeRequest, 16),
		done:     make(chan struct{}),
	}
}

// Start transitions Idle → Running and launches the tick loop. The
// scheduler stops when ctx is cancelled, Stop is called, or the
// dispatcher reports a fatal error.
func (t *TransmissionScheduler) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.state {
	case StateRunning:
		return ErrSchedulerAlreadyRunning
	case StateStopped:
		return ErrSchedulerStopped
	}
	ctx, t.cancel = context.WithCancel(ctx)
	t.state = StateRunning
	go t.run(ctx)
	return nil
}

// Stop cancels the tick loop and waits for in-flight work to finish and
// the dispatcher to be closed. Safe to call more than once.
func (t *TransmissionScheduler) Stop() {
	t.mu.Lock()
	if t.state == StateIdle {
		t.state = StateStopped
		t.mu.Unlock()
		t.doneOnce.Do(func() { close(t.done) })
		return
	}
	cancel := t.cancel
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	<-t.done
}

// Done closes when the scheduler has stopped and released its transport.
func (t *TransmissionScheduler) Done() <-chan struct{} { return t.done }

// Err reports the fatal transport error that stopped the scheduler, if any.
func (t *TransmissionScheduler) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *TransmissionScheduler) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Snapshot returns a copy of the unit state for display purposes.
func (t *TransmissionScheduler) Snapshot() UnitState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return *t.unit
}

// RequestChange queues new course/speed/altitude targets, consumed at the
// start of the next tick. Invalid values never reach the unit state.
func (t *TransmissionScheduler) RequestChange(req ChangeRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	t.mu.Lock()
	stopped := t.state == StateStopped
	t.mu.Unlock()
	if stopped {
		return ErrSchedulerStopped
	}
	select {
	case t.changes <- req:
		return nil
	default:
		return ErrChangeBacklog
	}
}

func (t *TransmissionScheduler) run(ctx context.Context) {
	defer t.doneOnce.Do(func() { close(t.done) })
	defer t.disp.Close()

	last := time.Now()
	next := last.Truncate(t.interval).Add(t.interval)
	timer := time.NewTimer(time.Until(next))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			t.setStopped(nil)
			return
		case now := <-timer.C:
			t.drainChanges()
			if err := t.tick(now, now.Sub(last)); err != nil {
				t.setStopped(err)
				return
			}
			last = now
			// Schedule from the target time, not from now.
			next = next.Add(t.interval)
			for !next.After(time.Now()) {
				next = next.Add(t.interval)
			}
			timer.Reset(time.Until(next))
		}
	}
}

func (t *TransmissionScheduler) drainChanges() {
	for {
		select {
		case req := <-t.changes:
			t.mu.Lock()
			t.unit.apply(req)
			t.mu.Unlock()
		default:
			return
		}
	}
}

func (t *TransmissionScheduler) tick(now time.Time, elapsed time.Duration) error {
	t.mu.Lock()
	t.sim.Advance(t.unit, elapsed, now)
	fix := nmea.Fix{
		Lat:    t.unit.Lat,
		Lon:    t.unit.Lon,
		Alt:    t.unit.Alt,
		Speed:  t.unit.Speed,
		Course: t.unit.Course,
		Time:   t.unit.Timestamp,
	}
	t.mu.Unlock()

	return t.disp.Send(t.enc.Encode(fix))
}

func (t *TransmissionScheduler) setStopped(err error) {
	t.mu.Lock()
	t.state = StateStopped
	t.err = err
	t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
	}
}
