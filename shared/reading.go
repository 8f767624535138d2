package shared

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const SensorType = "freezer"

// TimestampLayout renders UTC instants with microseconds and an explicit Z marker.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

type Reading struct {
	SensorType       string  `json:"sensor_type"`
	DeviceID         string  `json:"device_id"`
	Lat              float64 `json:"lat"`
	Lon              float64 `json:"lon"`
	LocationName     string  `json:"location_name"`
	TempCabinet      float64 `json:"temp_cabinet"`
	TempAmbient      float64 `json:"temp_ambient"`
	DoorOpen         bool    `json:"door_open"`
	DefrostOn        bool    `json:"defrost_on"`
	CompressorPowerW float64 `json:"compressor_power_w"`
	CompressorFreqHz float64 `json:"compressor_freq_hz"`
	FrostLevel       float64 `json:"frost_level"`
	COP              float64 `json:"cop"`
	Fault            string  `json:"fault"`
	FaultID          int     `json:"fault_id"`
	Timestamp        string  `json:"timestamp"`
}

// Time parses the capture timestamp back into a time.Time.
func (r Reading) Time() (time.Time, error) {
	return time.Parse(TimestampLayout, r.Timestamp)
}

// round rounds the exact binary value of v, breaking exact ties to even.
func round(v float64, places int32) float64 {
	return decimal.RequireFromString(strconv.FormatFloat(v, 'f', int(places), 64)).InexactFloat64()
}
