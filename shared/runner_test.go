package shared

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySink struct {
	readings []Reading
	failFor  string
}

func (m *memorySink) Name() string { return "memory" }

func (m *memorySink) Send(_ context.Context, r Reading) error {
	m.readings = append(m.readings, r)
	if r.DeviceID == m.failFor {
		return errors.New("connection refused")
	}
	return nil
}

type countingObserver struct {
	ok, failed int
}

func (c *countingObserver) ObserveSend(_, _ string, _ time.Duration, err error) {
	if err != nil {
		c.failed++
		return
	}
	c.ok++
}

func newTestRunner(t *testing.T, sink Sink) (*Runner, *int) {
	t.Helper()
	log, _ := logtest.NewNullLogger()
	ds := makeDataset(30, func(i int) HistoricalRow {
		return HistoricalRow{Fault: FaultNormal, FrostLevel: 0.2, CompressorPowerW: float64(i), TempAmbient: 20}
	})
	units, err := NewFleet(ds, DefaultFleet(), log)
	require.NoError(t, err)

	sleeps := 0
	return &Runner{
		Units:    units,
		Synth:    newTestSynth(99),
		Sink:     sink,
		Interval: time.Hour,
		Log:      log,
		Sleep: func(context.Context, time.Duration) error {
			sleeps++
			return nil
		},
	}, &sleeps
}

func TestRunnerOnceSendsOneReadingPerDevice(t *testing.T) {
	sink := &memorySink{}
	r, sleeps := newTestRunner(t, sink)
	r.Once = true

	require.NoError(t, r.Run(context.Background()))

	require.Len(t, sink.readings, 5)
	assert.Equal(t, 0, *sleeps)
	for i, d := range DefaultFleet() {
		assert.Equal(t, d.DeviceID, sink.readings[i].DeviceID)
	}
}

func TestRunnerOnceDoesNotWait(t *testing.T) {
	sink := &memorySink{}
	r, _ := newTestRunner(t, sink)
	r.Once = true
	r.Sleep = nil

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("one-shot run did not return")
	}
	assert.Len(t, sink.readings, 5)
}

func TestRunnerCycleIsolatesFailures(t *testing.T) {
	sink := &memorySink{failFor: "FREEZER_002"}
	obs := &countingObserver{}
	r, _ := newTestRunner(t, sink)
	r.Observer = obs

	rep := r.Cycle(context.Background(), 1)
	assert.Equal(t, CycleReport{Iteration: 1, Sent: 4, Failed: 1}, rep)
	assert.Equal(t, 4, obs.ok)
	assert.Equal(t, 1, obs.failed)

	// the failing device still advanced its cursor
	idx, _ := r.Units[1].Cursor.Next()
	assert.Equal(t, 1, idx)
}

func TestRunnerLogsStatusLines(t *testing.T) {
	sink := &memorySink{failFor: "FREEZER_003"}
	r, _ := newTestRunner(t, sink)
	log, hook := logtest.NewNullLogger()
	r.Log = log

	r.Cycle(context.Background(), 7)

	var ok, failed int
	for _, e := range hook.AllEntries() {
		if e.Data["iteration"] != 7 {
			continue
		}
		switch {
		case strings.HasPrefix(e.Message, "✓ "):
			ok++
		case strings.HasPrefix(e.Message, "✗ FREEZER_003 (Glasgow)"):
			failed++
			assert.NotNil(t, e.Data["error"])
		}
	}
	assert.Equal(t, 4, ok)
	assert.Equal(t, 1, failed)
}

func TestRunnerRecordsLatency(t *testing.T) {
	sink := &memorySink{}
	r, _ := newTestRunner(t, sink)
	buf := &closingBuffer{}
	r.Latency = newLatencyRecorder(buf)

	r.Cycle(context.Background(), 1)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	for _, l := range lines {
		assert.Contains(t, l, ",memory.send,")
	}
}

func TestRunnerStopsOnCancel(t *testing.T) {
	sink := &memorySink{}
	r, _ := newTestRunner(t, sink)
	ctx, cancel := context.WithCancel(context.Background())
	r.Sleep = func(context.Context, time.Duration) error {
		cancel()
		return ctx.Err()
	}

	err := r.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, sink.readings, 5)
}

func TestCycleCompletesAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var cancelledSends int
	sink := SinkFunc("cancel", func(sendCtx context.Context, r Reading) error {
		cancel()
		if sendCtx.Err() != nil {
			cancelledSends++
		}
		return nil
	})
	r, _ := newTestRunner(t, sink)

	report := r.Cycle(ctx, 1)
	assert.Equal(t, 5, report.Sent)
	assert.Zero(t, cancelledSends)
	assert.Error(t, ctx.Err())
}

func TestCycleSendTimeout(t *testing.T) {
	var deadlines int
	var sendErrs []error
	sink := SinkFunc("stuck", func(ctx context.Context, r Reading) error {
		if _, ok := ctx.Deadline(); ok {
			deadlines++
		}
		<-ctx.Done()
		sendErrs = append(sendErrs, ctx.Err())
		return ctx.Err()
	})
	r, _ := newTestRunner(t, sink)
	r.Timeout = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	start := time.Now()
	report := r.Cycle(ctx, 1)

	assert.Equal(t, 5, report.Failed)
	assert.Equal(t, 5, deadlines)
	assert.Less(t, time.Since(start), 2*time.Second)
	for _, err := range sendErrs {
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	}
}

func TestCycleWithoutTimeoutHasNoDeadline(t *testing.T) {
	var deadlines int
	sink := SinkFunc("memory", func(ctx context.Context, r Reading) error {
		if _, ok := ctx.Deadline(); ok {
			deadlines++
		}
		return nil
	})
	r, _ := newTestRunner(t, sink)

	report := r.Cycle(context.Background(), 1)
	assert.Equal(t, 5, report.Sent)
	assert.Zero(t, deadlines)
}

func TestRepeatBounded(t *testing.T) {
	var iterations []int
	sleeps := 0

	err := repeat(context.Background(), time.Minute, 3,
		func(context.Context, time.Duration) error {
			sleeps++
			return nil
		},
		func(_ context.Context, it int) error {
			iterations = append(iterations, it)
			return nil
		})

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, iterations)
	assert.Equal(t, 2, sleeps)
}

func TestRepeatTaskError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0

	err := Repeat(context.Background(), time.Millisecond, 0, func(_ context.Context, it int) error {
		calls++
		if it == 2 {
			return boom
		}
		return nil
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestRepeatCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Repeat(ctx, time.Millisecond, 0, func(context.Context, int) error {
		t.Fatal("task must not run")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSleepContext(t *testing.T) {
	require.NoError(t, SleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, SleepContext(ctx, time.Hour), context.Canceled)
}
