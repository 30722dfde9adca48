package usecases

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// IntervalSchedule fires at a fixed cadence. Unlike cron.Every it keeps
// sub-second precision.
type IntervalSchedule struct {
	Interval time.Duration
}

var _ cron.Schedule = IntervalSchedule{}

func (s IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

var _ PeriodicRecording = (*PeriodicRecorder)(nil)

// PeriodicRecorder is Idle until started. While Running it captures on
// every tick of its schedule. A tick that comes due while the previous
// capture is still running is skipped, never queued.
type PeriodicRecorder struct {
	recorder
	schedule  cron.Schedule
	autostart bool

	mu       sync.Mutex
	cancel   context.CancelFunc
	loopDone chan struct{}

	capturing atomic.Bool
	inFlight  sync.WaitGroup
}

func NewPeriodicRecorder(
	id string,
	measurementSupplier *MeasurementSupplier,
	database MeasurementsDatabase,
	schedule cron.Schedule,
	autostart bool,
) *PeriodicRecorder {
	return &PeriodicRecorder{
		recorder:  newRecorder(id, measurementSupplier, database),
		schedule:  schedule,
		autostart: autostart,
	}
}

func (r *PeriodicRecorder) Mode() string {
	return RecorderModePeriodic
}

func (r *PeriodicRecorder) Autostart() bool {
	return r.autostart
}

func (r *PeriodicRecorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}

// StartRecording is a no-op when already running.
func (r *PeriodicRecorder) StartRecording(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		return nil
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.loopDone = make(chan struct{})
	go r.run(loopCtx, r.loopDone)

	slog.Info("periodic recording started", slog.String("recorder_id", r.id))
	return nil
}

// StopRecording is a no-op when idle. It returns once the scheduling loop
// has exited, so no tick fires afterwards. A capture already in flight is
// allowed to finish.
func (r *PeriodicRecorder) StopRecording(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel == nil {
		return nil
	}

	r.cancel()
	<-r.loopDone
	r.cancel = nil
	r.loopDone = nil

	slog.Info("periodic recording stopped", slog.String("recorder_id", r.id))
	return nil
}

// Wait blocks until in-flight captures have completed.
func (r *PeriodicRecorder) Wait() {
	r.inFlight.Wait()
}

func (r *PeriodicRecorder) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	next := r.schedule.Next(time.Now())
	if next.IsZero() {
		slog.Error("schedule never fires", slog.String("recorder_id", r.id))
		return
	}
	timer := time.NewTimer(time.Until(next))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if ctx.Err() != nil {
				return
			}
			r.tick(ctx)

			now := time.Now()
			for !next.After(now) {
				next = r.schedule.Next(next)
				if next.IsZero() {
					slog.Warn("schedule exhausted", slog.String("recorder_id", r.id))
					return
				}
			}
			timer.Reset(next.Sub(now))
		}
	}
}

func (r *PeriodicRecorder) tick(ctx context.Context) {
	if !r.capturing.CompareAndSwap(false, true) {
		slog.Warn("skipping tick, previous capture still running", slog.String("recorder_id", r.id))
		r.metrics.skipped(ctx, r.id)
		return
	}

	r.inFlight.Add(1)
	go func() {
		defer r.inFlight.Done()
		defer r.capturing.Store(false)

		measurement, err := r.captureAndStore(context.WithoutCancel(ctx))
		if err != nil {
			slog.Error("periodic capture failed",
				slog.String("recorder_id", r.id),
				slog.Any("error", err))
			return
		}

		slog.Debug("periodic measurement recorded",
			slog.String("recorder_id", r.id),
			slog.String("supplier_id", measurement.SupplierID),
			slog.Time("timestamp", measurement.Timestamp))
	}()
}
