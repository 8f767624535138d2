package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"gitlab.com/resynctech/resync-cloud/fleetsim/config"
	"gitlab.com/resynctech/resync-cloud/fleetsim/metrics"
	"gitlab.com/resynctech/resync-cloud/fleetsim/shared"
	"golang.org/x/sync/errgroup"
)

type schemaEnsurer interface {
	EnsureSchema(ctx context.Context) error
}

func (a *app) run(ctx context.Context, open openFunc) error {
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}

	ds, err := shared.LoadCSV(cfg.CSV)
	if err != nil {
		log.WithError(err).WithField("csv", cfg.CSV).Error("could not load dataset")
		return err
	}
	log.WithFields(logrus.Fields{"csv": cfg.CSV, "rows": len(ds)}).Info("dataset loaded")

	units, err := shared.NewFleet(ds, shared.DefaultFleet(), log)
	if err != nil {
		return err
	}

	s, err := open(ctx, cfg, log)
	if err != nil {
		return err
	}
	if c, ok := s.(io.Closer); ok {
		defer func() {
			if err := c.Close(); err != nil {
				log.WithError(err).Warn("closing sink")
			}
		}()
	}

	if a.ensureSchema {
		if e, ok := s.(schemaEnsurer); ok {
			if err := e.EnsureSchema(ctx); err != nil {
				return err
			}
			log.WithField("sink", s.Name()).Info("schema ready")
		}
	}

	reg := prometheus.NewRegistry()
	runner := &shared.Runner{
		Units:    units,
		Synth:    shared.NewSeededSynthesizer(cfg.Seed),
		Sink:     s,
		Interval: cfg.Interval,
		Timeout:  cfg.Timeout,
		Once:     cfg.Test,
		Log:      log,
		Observer: metrics.NewFleet(reg),
	}

	if cfg.LatencyFile != "" {
		rec, err := shared.NewLatencyRecorder(cfg.LatencyFile)
		if err != nil {
			return err
		}
		defer rec.Close()
		runner.Latency = rec
	}

	err = serve(ctx, cfg.MetricsAddr, reg, log, runner.Run)
	if errors.Is(err, context.Canceled) {
		log.Info("simulator stopped")
		return nil
	}
	return err
}

// serve runs fn and, when addr is set, a metrics endpoint alongside it. The
// endpoint shuts down once fn returns.
func serve(ctx context.Context, addr string, g prometheus.Gatherer, log logrus.FieldLogger, fn func(context.Context) error) error {
	if addr == "" {
		return fn(ctx)
	}

	eg, ctx := errgroup.WithContext(ctx)
	runCtx, done := context.WithCancel(ctx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           metrics.Handler(g),
		ReadHeaderTimeout: 5 * time.Second,
	}

	eg.Go(func() error {
		log.WithField("addr", addr).Info("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "metrics server")
		}
		return nil
	})
	eg.Go(func() error {
		<-runCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	eg.Go(func() error {
		defer done()
		return fn(runCtx)
	})

	return eg.Wait()
}
