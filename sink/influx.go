package sink

import (
	"context"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/pkg/errors"
	"gitlab.com/resynctech/resync-cloud/fleetsim/config"
	"gitlab.com/resynctech/resync-cloud/fleetsim/shared"
)

type Influx struct {
	client influxdb2.Client
	write  api.WriteAPIBlocking
}

func NewInflux(cfg config.InfluxConfig) *Influx {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Influx{
		client: client,
		write:  client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}
}

func (i *Influx) Name() string {
	return "influx"
}

func (i *Influx) Send(ctx context.Context, r shared.Reading) error {
	p, err := point(r)
	if err != nil {
		return err
	}
	return errors.Wrap(i.write.WritePoint(ctx, p), "write point")
}

func (i *Influx) Close() error {
	i.client.Close()
	return nil
}

// point maps a reading to the "freezer" measurement, tagged by device,
// location and fault.
func point(r shared.Reading) (*write.Point, error) {
	ts, err := r.Time()
	if err != nil {
		return nil, errors.Wrapf(err, "parse timestamp %q", r.Timestamp)
	}
	return influxdb2.NewPoint(
		r.SensorType,
		map[string]string{
			"device_id":     r.DeviceID,
			"location_name": r.LocationName,
			"fault":         r.Fault,
		},
		map[string]interface{}{
			"lat":                r.Lat,
			"lon":                r.Lon,
			"temp_cabinet":       r.TempCabinet,
			"temp_ambient":       r.TempAmbient,
			"door_open":          r.DoorOpen,
			"defrost_on":         r.DefrostOn,
			"compressor_power_w": r.CompressorPowerW,
			"compressor_freq_hz": r.CompressorFreqHz,
			"frost_level":        r.FrostLevel,
			"cop":                r.COP,
			"fault_id":           r.FaultID,
		},
		ts,
	), nil
}
