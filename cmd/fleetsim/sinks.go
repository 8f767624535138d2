package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gitlab.com/resynctech/resync-cloud/fleetsim/config"
	"gitlab.com/resynctech/resync-cloud/fleetsim/shared"
	"gitlab.com/resynctech/resync-cloud/fleetsim/sink"
)

// openFunc connects the sink readings are delivered to.
type openFunc func(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (shared.Sink, error)

func sinkCommands(a *app) []*cobra.Command {
	sinks := []struct {
		use   string
		short string
		open  openFunc
	}{
		{"http", "POST readings as JSON to --server", openHTTP},
		{"clickhouse", "insert readings into ClickHouse", openClickHouse},
		{"influx", "write readings to InfluxDB", openInflux},
		{"timescale", "copy readings into TimescaleDB", openTimescale},
		{"singlestore", "insert readings into SingleStore", openSingleStore},
		{"mongodb", "insert readings into MongoDB", openMongoDB},
		{"mqtt", "publish readings to an MQTT broker", openMQTT},
		{"kafka", "produce readings to a Kafka topic", openKafka},
		{"sqlite", "store readings in a local SQLite file", openSQLite},
		{"stdout", "print readings as JSON lines", openStdout},
	}

	cmds := make([]*cobra.Command, 0, len(sinks))
	for _, s := range sinks {
		open := s.open
		cmds = append(cmds, &cobra.Command{
			Use:   s.use,
			Short: s.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.run(cmd.Context(), open)
			},
		})
	}
	return cmds
}

func openHTTP(_ context.Context, cfg *config.Config, log logrus.FieldLogger) (shared.Sink, error) {
	log.WithField("server", cfg.Server).Info("posting readings")
	return sink.NewHTTP(cfg.Server, cfg.Timeout), nil
}

func openClickHouse(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (shared.Sink, error) {
	log.WithField("addr", cfg.ClickHouse.Addr).Info("connecting to clickhouse")
	return sink.OpenClickHouse(ctx, cfg.ClickHouse)
}

func openInflux(_ context.Context, cfg *config.Config, log logrus.FieldLogger) (shared.Sink, error) {
	log.WithFields(logrus.Fields{"url": cfg.Influx.URL, "bucket": cfg.Influx.Bucket}).Info("writing to influx")
	return sink.NewInflux(cfg.Influx), nil
}

func openTimescale(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (shared.Sink, error) {
	log.WithField("table", cfg.Timescale.Table).Info("connecting to timescale")
	return sink.OpenTimescale(ctx, cfg.Timescale)
}

func openSingleStore(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (shared.Sink, error) {
	log.WithField("table", cfg.SingleStore.Table).Info("connecting to singlestore")
	return sink.OpenSingleStore(ctx, cfg.SingleStore)
}

func openMongoDB(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (shared.Sink, error) {
	log.WithFields(logrus.Fields{"database": cfg.MongoDB.Database, "collection": cfg.MongoDB.Collection}).Info("connecting to mongodb")
	return sink.OpenMongoDB(ctx, cfg.MongoDB)
}

func openMQTT(_ context.Context, cfg *config.Config, log logrus.FieldLogger) (shared.Sink, error) {
	return sink.ConnectMQTT(cfg.MQTT, cfg.Timeout, log)
}

func openKafka(_ context.Context, cfg *config.Config, log logrus.FieldLogger) (shared.Sink, error) {
	log.WithFields(logrus.Fields{"brokers": cfg.Kafka.Brokers, "topic": cfg.Kafka.Topic}).Info("producing to kafka")
	return sink.NewKafka(cfg.Kafka), nil
}

func openSQLite(_ context.Context, cfg *config.Config, log logrus.FieldLogger) (shared.Sink, error) {
	log.WithField("path", cfg.SQLite.Path).Info("opening sqlite")
	return sink.OpenSQLite(cfg.SQLite.Path)
}

func openStdout(context.Context, *config.Config, logrus.FieldLogger) (shared.Sink, error) {
	return jsonLines("stdout", os.Stdout), nil
}

func jsonLines(name string, w io.Writer) shared.Sink {
	enc := json.NewEncoder(w)
	return shared.SinkFunc(name, func(_ context.Context, r shared.Reading) error {
		return enc.Encode(r)
	})
}
