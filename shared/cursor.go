package shared

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Cursor walks a device's subsequence and wraps to the start when exhausted.
type Cursor struct {
	rows  []HistoricalRow
	index int
}

func NewCursor(rows []HistoricalRow) (*Cursor, error) {
	if len(rows) == 0 {
		return nil, errors.New("cursor needs at least one row")
	}
	return &Cursor{rows: rows}, nil
}

// Next returns the index to read and its row, then advances.
func (c *Cursor) Next() (int, HistoricalRow) {
	if c.index >= len(c.rows) {
		c.index = 0
	}
	idx := c.index
	c.index++
	return idx, c.rows[idx]
}

func (c *Cursor) Len() int {
	return len(c.rows)
}

// Unit is the per-device simulation state: the static device description
// plus its cursor into the personality subsequence.
type Unit struct {
	Device VirtualDevice
	Cursor *Cursor
}

// NewFleet selects each device's subsequence from ds and builds its state.
func NewFleet(ds Dataset, devices []VirtualDevice, log logrus.FieldLogger) ([]*Unit, error) {
	if len(ds) == 0 {
		return nil, ErrEmptyDataset
	}

	units := make([]*Unit, 0, len(devices))
	for _, d := range devices {
		rows := SelectRows(ds, d.Personality)
		cur, err := NewCursor(rows)
		if err != nil {
			return nil, errors.Wrapf(err, "device %s", d.DeviceID)
		}
		log.WithFields(logrus.Fields{
			"device_id":   d.DeviceID,
			"personality": d.Personality,
			"rows":        cur.Len(),
		}).Info("rows available")
		units = append(units, &Unit{Device: d, Cursor: cur})
	}
	return units, nil
}
