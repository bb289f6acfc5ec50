package gps

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nmea-gps-emulator/nmea"
)

// captureDispatcher records every dispatched batch. failAfter > 0 makes
// Send return failErr once that many batches have gone through.
type captureDispatcher struct {
	mu        sync.Mutex
	batches   [][]nmea.Sentence
	closed    bool
	failAfter int
	failErr   error
}

func (d *captureDispatcher) Send(batch []nmea.Sentence) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failAfter > 0 && len(d.batches) >= d.failAfter {
		return d.failErr
	}
	d.batches = append(d.batches, batch)
	return nil
}

func (d *captureDispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *captureDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.batches)
}

func (d *captureDispatcher) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func newTestScheduler(t *testing.T, disp Dispatcher, interval time.Duration) *TransmissionScheduler {
	t.Helper()
	unit, err := NewUnitState(57.7, 11.99, 42, 2, 260, time.Now())
	require.NoError(t, err)
	return NewScheduler(unit, nmea.NewEncoder(1), disp, interval)
}

func TestSchedulerTicks(t *testing.T) {
	disp := &captureDispatcher{}
	s := newTestScheduler(t, disp, 10*time.Millisecond)

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, StateRunning, s.State())

	require.Eventually(t, func() bool { return disp.count() >= 3 },
		2*time.Second, 5*time.Millisecond)

	s.Stop()
	assert.Equal(t, StateStopped, s.State())
	assert.NoError(t, s.Err())
	assert.True(t, disp.isClosed())

	// Every batch is a full sentence set.
	assert.Len(t, disp.batches[0], 11)
}

func TestSchedulerDoubleStart(t *testing.T) {
	disp := &captureDispatcher{}
	s := newTestScheduler(t, disp, 10*time.Millisecond)

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	s.Stop()
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerStopped)
}

func TestSchedulerStopIdempotent(t *testing.T) {
	disp := &captureDispatcher{}
	s := newTestScheduler(t, disp, 10*time.Millisecond)

	// Stop before Start is legal and terminal.
	s.Stop()
	s.Stop()
	assert.Equal(t, StateStopped, s.State())

	select {
	case <-s.Done():
	default:
		t.Fatal("Done should be closed after Stop")
	}
}

func TestSchedulerFatalTransportError(t *testing.T) {
	wantErr := errors.New("port gone")
	disp := &captureDispatcher{failAfter: 2, failErr: wantErr}
	s := newTestScheduler(t, disp, 10*time.Millisecond)

	require.NoError(t, s.Start(context.Background()))

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler should stop on a fatal transport error")
	}

	assert.Equal(t, StateStopped, s.State())
	assert.ErrorIs(t, s.Err(), wantErr)
	assert.Equal(t, 2, disp.count())
	assert.True(t, disp.isClosed())
}

func TestSchedulerContextCancel(t *testing.T) {
	disp := &captureDispatcher{}
	s := newTestScheduler(t, disp, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	cancel()

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler should stop when the context is cancelled")
	}
	assert.NoError(t, s.Err())
	assert.True(t, disp.isClosed())
}

func TestSchedulerRequestChange(t *testing.T) {
	disp := &captureDispatcher{}
	s := newTestScheduler(t, disp, 10*time.Millisecond)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	course := 90.0
	speed := 15.0
	require.NoError(t, s.RequestChange(ChangeRequest{Course: &course, Speed: &speed}))

	require.Eventually(t, func() bool {
		snap := s.Snapshot()
		return snap.TargetCourse == 90 && snap.TargetSpeed == 15
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSchedulerRequestChangeValidation(t *testing.T) {
	disp := &captureDispatcher{}
	s := newTestScheduler(t, disp, 10*time.Millisecond)

	bad := 360.0
	assert.ErrorIs(t, s.RequestChange(ChangeRequest{Course: &bad}), ErrInvalidCourse)

	tooFast := 1000.0
	assert.ErrorIs(t, s.RequestChange(ChangeRequest{Speed: &tooFast}), ErrInvalidSpeed)

	tooLow := -41.0
	assert.ErrorIs(t, s.RequestChange(ChangeRequest{Altitude: &tooLow}), ErrInvalidAltitude)
}

func TestSchedulerRequestChangeBacklog(t *testing.T) {
	disp := &captureDispatcher{}
	s := newTestScheduler(t, disp, 10*time.Millisecond)

	// Scheduler not running, so nothing drains the queue.
	course := 90.0
	for i := 0; i < 16; i++ {
		require.NoError(t, s.RequestChange(ChangeRequest{Course: &course}))
	}
	assert.ErrorIs(t, s.RequestChange(ChangeRequest{Course: &course}), ErrChangeBacklog)
}

func TestSchedulerRequestChangeAfterStop(t *testing.T) {
	disp := &captureDispatcher{}
	s := newTestScheduler(t, disp, 10*time.Millisecond)
	s.Stop()

	course := 90.0
	assert.ErrorIs(t, s.RequestChange(ChangeRequest{Course: &course}), ErrSchedulerStopped)
}

func TestNewUnitStateValidation(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name                          string
		lat, lon, alt, speed, course float64
		wantErr                       error
	}{
		{"valid", 57.7, 11.99, 42, 2, 260, nil},
		{"latitude too high", 90.1, 0, 0, 0, 0, ErrInvalidLatitude},
		{"longitude too low", 0, -180.1, 0, 0, 0, ErrInvalidLongitude},
		{"altitude too low", 0, 0, -41, 0, 0, ErrInvalidAltitude},
		{"altitude too high", 0, 0, 9001, 0, 0, ErrInvalidAltitude},
		{"speed negative", 0, 0, 0, -1, 0, ErrInvalidSpeed},
		{"speed too high", 0, 0, 0, 999.5, 0, ErrInvalidSpeed},
		{"course 360", 0, 0, 0, 0, 360, ErrInvalidCourse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, err := NewUnitState(tt.lat, tt.lon, tt.alt, tt.speed, tt.course, now)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.course, state.TargetCourse)
			assert.Equal(t, tt.speed, state.TargetSpeed)
			assert.Equal(t, tt.alt, state.TargetAlt)
		})
	}
}
