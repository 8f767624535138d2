package shared

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// SendObserver is notified after every send attempt.
type SendObserver interface {
	ObserveSend(sink, deviceID string, elapsed time.Duration, err error)
}

type CycleReport struct {
	Iteration int
	Sent      int
	Failed    int
}

// Runner drives the fleet: one reading per unit per cycle, in roster order,
// with a pause between cycles.
type Runner struct {
	Units    []*Unit
	Synth    *Synthesizer
	Sink     Sink
	Interval time.Duration
	Timeout  time.Duration // per send, 0 means no deadline
	Once     bool
	Log      logrus.FieldLogger

	// Optional.
	Latency  *LatencyRecorder
	Observer SendObserver
	Sleep    func(ctx context.Context, d time.Duration) error
}

func (r *Runner) Run(ctx context.Context) error {
	r.Log.WithFields(logrus.Fields{
		"sink":     r.Sink.Name(),
		"interval": r.Interval,
		"units":    len(r.Units),
	}).Info("starting fleet simulator")

	limit := 0
	if r.Once {
		limit = 1
	}

	sleep := r.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	err := repeat(ctx, r.Interval, limit, sleep, func(ctx context.Context, iteration int) error {
		r.Cycle(ctx, iteration)
		return nil
	})
	if err != nil {
		return err
	}
	if r.Once {
		r.Log.Info("test mode - exiting after one iteration")
	}
	return nil
}

// Cycle emits one reading for every unit. Send failures are logged and
// counted; they never stop the cycle.
func (r *Runner) Cycle(ctx context.Context, iteration int) CycleReport {
	report := CycleReport{Iteration: iteration}
	log := r.Log.WithField("iteration", iteration)
	log.Debug("cycle started")

	// a started cycle completes; each send is bounded by Timeout instead
	sendCtx := context.WithoutCancel(ctx)

	for _, u := range r.Units {
		idx, row := u.Cursor.Next()
		reading := r.Synth.Synthesize(u.Device, row, idx)

		start := time.Now()
		err := r.send(sendCtx, reading)
		elapsed := time.Since(start)
		r.record(u.Device.DeviceID, start, elapsed, err)

		entry := log.WithFields(logrus.Fields{
			"device_id": reading.DeviceID,
			"index":     idx,
			"fault":     reading.Fault,
		})
		if err != nil {
			report.Failed++
			entry.WithError(err).Warn(statusLine("✗", reading))
			continue
		}
		report.Sent++
		entry.Info(statusLine("✓", reading))
	}
	return report
}

func (r *Runner) send(ctx context.Context, reading Reading) error {
	if r.Timeout <= 0 {
		return r.Sink.Send(ctx, reading)
	}
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()
	return r.Sink.Send(ctx, reading)
}

func (r *Runner) record(deviceID string, start time.Time, elapsed time.Duration, err error) {
	if r.Observer != nil {
		r.Observer.ObserveSend(r.Sink.Name(), deviceID, elapsed, err)
	}
	if r.Latency == nil {
		return
	}
	if lerr := r.Latency.Record(r.Sink.Name()+".send", start, elapsed); lerr != nil {
		r.Log.WithError(lerr).Warn("latency record failed")
	}
}

func statusLine(icon string, reading Reading) string {
	door := ""
	if reading.DoorOpen {
		door = " door open"
	}
	return fmt.Sprintf("%s %s (%s): %.1f°C %s%s",
		icon, reading.DeviceID, reading.LocationName, reading.TempCabinet, reading.Fault, door)
}

// Repeat runs task until ctx is cancelled or, when limit > 0, limit times.
// It waits interval between iterations but never after the last one of a
// bounded run. Iterations are numbered from 1.
func Repeat(ctx context.Context, interval time.Duration, limit int, task func(ctx context.Context, iteration int) error) error {
	return repeat(ctx, interval, limit, SleepContext, task)
}

func repeat(
	ctx context.Context,
	interval time.Duration,
	limit int,
	sleep func(context.Context, time.Duration) error,
	task func(context.Context, int) error,
) error {
	for iteration := 1; ; iteration++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := task(ctx, iteration); err != nil {
			return err
		}
		if limit > 0 && iteration >= limit {
			return nil
		}
		if err := sleep(ctx, interval); err != nil {
			return err
		}
	}
}

// SleepContext waits for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
