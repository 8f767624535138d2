package sink

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"gitlab.com/resynctech/resync-cloud/fleetsim/config"
	"gitlab.com/resynctech/resync-cloud/fleetsim/shared"
)

const timescaleDDL = `
CREATE TABLE IF NOT EXISTS %[1]s
(
	"timestamp"          TIMESTAMPTZ      NOT NULL,
	"device_id"          TEXT             NOT NULL,
	"location_name"      TEXT             NOT NULL,
	"lat"                DOUBLE PRECISION NOT NULL,
	"lon"                DOUBLE PRECISION NOT NULL,
	"temp_cabinet"       DOUBLE PRECISION NOT NULL,
	"temp_ambient"       DOUBLE PRECISION NOT NULL,
	"door_open"          BOOLEAN          NOT NULL,
	"defrost_on"         BOOLEAN          NOT NULL,
	"compressor_power_w" DOUBLE PRECISION NOT NULL,
	"compressor_freq_hz" DOUBLE PRECISION NOT NULL,
	"frost_level"        DOUBLE PRECISION NOT NULL,
	"cop"                DOUBLE PRECISION NOT NULL,
	"fault"              TEXT             NOT NULL,
	"fault_id"           BIGINT           NOT NULL
);
SELECT create_hypertable('%[1]s', 'timestamp', if_not_exists => TRUE);`

type Timescale struct {
	pool  *pgxpool.Pool
	table string
}

func OpenTimescale(ctx context.Context, cfg config.TimescaleConfig) (*Timescale, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "parse timescale dsn")
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, errors.Wrap(err, "open timescale")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping timescale")
	}

	table := cfg.Table
	if table == "" {
		table = DefaultTable
	}
	return &Timescale{pool: pool, table: table}, nil
}

func (t *Timescale) EnsureSchema(ctx context.Context) error {
	_, err := t.pool.Exec(ctx, fmt.Sprintf(timescaleDDL, t.table))
	return errors.Wrap(err, "create timescale table")
}

func (t *Timescale) Name() string {
	return "timescale"
}

func (t *Timescale) Send(ctx context.Context, r shared.Reading) error {
	row, err := values(r)
	if err != nil {
		return err
	}
	_, err = t.pool.CopyFrom(
		ctx,
		pgx.Identifier{t.table},
		columns,
		pgx.CopyFromRows([][]interface{}{row}),
	)
	return errors.Wrap(err, "copy reading")
}

func (t *Timescale) Close() error {
	t.pool.Close()
	return nil
}
