package sink

import (
	"context"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"gitlab.com/resynctech/resync-cloud/fleetsim/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ReadingRecord is the local table row.
type ReadingRecord struct {
	ID               uint      `gorm:"primaryKey"`
	Timestamp        time.Time `gorm:"index"`
	DeviceID         string    `gorm:"index"`
	LocationName     string
	Lat              float64
	Lon              float64
	TempCabinet      float64
	TempAmbient      float64
	DoorOpen         bool
	DefrostOn        bool
	CompressorPowerW float64
	CompressorFreqHz float64
	FrostLevel       float64
	COP              float64 `gorm:"column:cop"`
	Fault            string
	FaultID          int
}

func (ReadingRecord) TableName() string {
	return DefaultTable
}

// SQLite stores readings in a local file.
type SQLite struct {
	db *gorm.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	if err := db.AutoMigrate(&ReadingRecord{}); err != nil {
		return nil, errors.Wrap(err, "migrate sqlite")
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Name() string {
	return "sqlite"
}

func (s *SQLite) Send(ctx context.Context, r shared.Reading) error {
	ts, err := r.Time()
	if err != nil {
		return errors.Wrapf(err, "parse timestamp %q", r.Timestamp)
	}
	rec := ReadingRecord{
		Timestamp:        ts,
		DeviceID:         r.DeviceID,
		LocationName:     r.LocationName,
		Lat:              r.Lat,
		Lon:              r.Lon,
		TempCabinet:      r.TempCabinet,
		TempAmbient:      r.TempAmbient,
		DoorOpen:         r.DoorOpen,
		DefrostOn:        r.DefrostOn,
		CompressorPowerW: r.CompressorPowerW,
		CompressorFreqHz: r.CompressorFreqHz,
		FrostLevel:       r.FrostLevel,
		COP:              r.COP,
		Fault:            r.Fault,
		FaultID:          r.FaultID,
	}
	return errors.Wrap(s.db.WithContext(ctx).Create(&rec).Error, "insert reading")
}

// Count returns the number of stored readings for deviceID, or all readings
// when deviceID is empty.
func (s *SQLite) Count(ctx context.Context, deviceID string) (int64, error) {
	var n int64
	q := s.db.WithContext(ctx).Model(&ReadingRecord{})
	if deviceID != "" {
		q = q.Where("device_id = ?", deviceID)
	}
	err := q.Count(&n).Error
	return n, errors.Wrap(err, "count readings")
}

func (s *SQLite) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
