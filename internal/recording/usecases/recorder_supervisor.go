package usecases

import (
	"context"
	"log/slog"

	"measurements-server/internal/infra/async"
)

var _ async.Worker = (*RecorderSupervisor)(nil)

// RecorderSupervisor ties periodic recorders to the application lifetime:
// autostart recorders begin on Run and every timer is stopped on shutdown.
type RecorderSupervisor struct {
	recorders *RecorderCollection
}

func NewRecorderSupervisor(recorders *RecorderCollection) *RecorderSupervisor {
	return &RecorderSupervisor{
		recorders: recorders,
	}
}

type autostarter interface {
	Autostart() bool
}

type waiter interface {
	Wait()
}

func (s *RecorderSupervisor) Run(ctx context.Context, done func()) {
	slog.Debug("recorder supervisor started")
	defer done()

	for _, recorder := range s.recorders.Periodic() {
		if a, ok := recorder.(autostarter); !ok || !a.Autostart() {
			continue
		}
		if err := recorder.StartRecording(ctx); err != nil {
			slog.Error("autostarting recorder",
				slog.String("recorder_id", recorder.ID()),
				slog.Any("error", err))
		}
	}

	<-ctx.Done()
	slog.Info("recorder supervisor cancelled")
	s.Shutdown()
}

func (s *RecorderSupervisor) Shutdown() {
	for _, recorder := range s.recorders.Periodic() {
		if err := recorder.StopRecording(context.Background()); err != nil {
			slog.Error("stopping recorder",
				slog.String("recorder_id", recorder.ID()),
				slog.Any("error", err))
		}
	}

	for _, recorder := range s.recorders.Periodic() {
		if w, ok := recorder.(waiter); ok {
			w.Wait()
		}
	}
}
