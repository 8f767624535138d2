package sink

import (
	"github.com/pkg/errors"
	"gitlab.com/resynctech/resync-cloud/fleetsim/shared"
)

const DefaultTable = "freezer_readings"

// columns is the row layout shared by the SQL backends.
var columns = []string{
	"timestamp",
	"device_id",
	"location_name",
	"lat",
	"lon",
	"temp_cabinet",
	"temp_ambient",
	"door_open",
	"defrost_on",
	"compressor_power_w",
	"compressor_freq_hz",
	"frost_level",
	"cop",
	"fault",
	"fault_id",
}

// values returns r in column order with the timestamp parsed.
func values(r shared.Reading) ([]interface{}, error) {
	ts, err := r.Time()
	if err != nil {
		return nil, errors.Wrapf(err, "parse timestamp %q", r.Timestamp)
	}
	return []interface{}{
		ts,
		r.DeviceID,
		r.LocationName,
		r.Lat,
		r.Lon,
		r.TempCabinet,
		r.TempAmbient,
		r.DoorOpen,
		r.DefrostOn,
		r.CompressorPowerW,
		r.CompressorFreqHz,
		r.FrostLevel,
		r.COP,
		r.Fault,
		int64(r.FaultID),
	}, nil
}
