package sink

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"gitlab.com/resynctech/resync-cloud/fleetsim/config"
	"gitlab.com/resynctech/resync-cloud/fleetsim/shared"
)

const singleStoreDDL = `
CREATE TABLE IF NOT EXISTS %s (
	timestamp datetime(6) NOT NULL,
	device_id varchar(32) NOT NULL,
	location_name varchar(64) NOT NULL,
	lat double NOT NULL,
	lon double NOT NULL,
	temp_cabinet double NOT NULL,
	temp_ambient double NOT NULL,
	door_open bool NOT NULL,
	defrost_on bool NOT NULL,
	compressor_power_w double NOT NULL,
	compressor_freq_hz double NOT NULL,
	frost_level double NOT NULL,
	cop double NOT NULL,
	fault varchar(32) NOT NULL,
	fault_id bigint NOT NULL,
	SHARD(device_id),
	KEY(timestamp)
)`

const mysqlTimeLayout = "2006-01-02 15:04:05.000000"

type SingleStore struct {
	db    *sql.DB
	stmt  *sql.Stmt
	table string
}

func OpenSingleStore(ctx context.Context, cfg config.SingleStoreConfig) (*SingleStore, error) {
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "open singlestore")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping singlestore")
	}

	table := cfg.Table
	if table == "" {
		table = DefaultTable
	}
	return &SingleStore{db: db, table: table}, nil
}

// EnsureSchema must run before the first Send when the table may not exist.
func (s *SingleStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(singleStoreDDL, s.table))
	return errors.Wrap(err, "create singlestore table")
}

func (s *SingleStore) Name() string {
	return "singlestore"
}

func (s *SingleStore) Send(ctx context.Context, r shared.Reading) error {
	row, err := values(r)
	if err != nil {
		return err
	}
	row[0] = row[0].(time.Time).Format(mysqlTimeLayout)

	if s.stmt == nil {
		stmt, err := s.db.PrepareContext(ctx, insertStatement(s.table))
		if err != nil {
			return errors.Wrap(err, "prepare insert")
		}
		s.stmt = stmt
	}

	_, err = s.stmt.ExecContext(ctx, row...)
	return errors.Wrap(err, "insert reading")
}

func (s *SingleStore) Close() error {
	if s.stmt != nil {
		s.stmt.Close()
	}
	return s.db.Close()
}

func insertStatement(table string) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(columns, ", "), placeholders)
}
