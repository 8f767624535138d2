package sink

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/pkg/errors"
	"gitlab.com/resynctech/resync-cloud/fleetsim/config"
	"gitlab.com/resynctech/resync-cloud/fleetsim/shared"
)

const clickHouseDDL = `
CREATE TABLE IF NOT EXISTS %s
(
	"timestamp" DateTime64(6, 'UTC'),
	"device_id" String,
	"location_name" String,
	"lat" Float64,
	"lon" Float64,
	"temp_cabinet" Float64,
	"temp_ambient" Float64,
	"door_open" Bool,
	"defrost_on" Bool,
	"compressor_power_w" Float64,
	"compressor_freq_hz" Float64,
	"frost_level" Float64,
	"cop" Float64,
	"fault" LowCardinality(String),
	"fault_id" Int64
)
ENGINE = MergeTree
ORDER BY (device_id, timestamp)`

type ClickHouse struct {
	conn  clickhouse.Conn
	table string
}

func OpenClickHouse(ctx context.Context, cfg config.ClickHouseConfig) (*ClickHouse, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "open clickhouse")
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "ping clickhouse")
	}

	table := cfg.Table
	if table == "" {
		table = DefaultTable
	}
	return &ClickHouse{conn: conn, table: table}, nil
}

func (c *ClickHouse) EnsureSchema(ctx context.Context) error {
	return errors.Wrap(c.conn.Exec(ctx, fmt.Sprintf(clickHouseDDL, c.table)), "create clickhouse table")
}

func (c *ClickHouse) Name() string {
	return "clickhouse"
}

func (c *ClickHouse) Send(ctx context.Context, r shared.Reading) error {
	row, err := values(r)
	if err != nil {
		return err
	}

	batch, err := c.conn.PrepareBatch(ctx, "INSERT INTO "+c.table)
	if err != nil {
		return errors.Wrap(err, "prepare batch")
	}
	if err := batch.Append(row...); err != nil {
		return errors.Wrap(err, "append row")
	}
	return errors.Wrap(batch.Send(), "send batch")
}

func (c *ClickHouse) Close() error {
	return c.conn.Close()
}
