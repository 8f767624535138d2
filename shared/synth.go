package shared

import (
	"math"
	"math/rand"
	"time"
)

const (
	DefaultJitter = 0.02

	doorOpenProbability = 0.3
	faultTempThreshold  = -5.0
	maxFrostLevel       = 1.0
)

// Synthesizer turns a historical row into a reading for one device. It is not
// safe for concurrent use; the runner drives it from a single goroutine.
type Synthesizer struct {
	rng *rand.Rand
	now func() time.Time
}

func NewSynthesizer(rng *rand.Rand) *Synthesizer {
	return &Synthesizer{rng: rng, now: time.Now}
}

// NewSeededSynthesizer seeds from the clock when seed is zero.
func NewSeededSynthesizer(seed int64) *Synthesizer {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return NewSynthesizer(rand.New(rand.NewSource(seed)))
}

// WithClock replaces the timestamp source.
func (s *Synthesizer) WithClock(now func() time.Time) *Synthesizer {
	s.now = now
	return s
}

// Jitter returns v perturbed by up to ±p of itself.
func (s *Synthesizer) Jitter(v, p float64) float64 {
	u := s.rng.Float64()*2 - 1
	return v + v*p*u
}

// Synthesize builds the reading for d from row. index is the cursor position
// of row, used as elapsed time by the dying_compressor personality.
func (s *Synthesizer) Synthesize(d VirtualDevice, row HistoricalRow, index int) Reading {
	tCab := row.TempCabinet
	tAmb := row.TempAmbient
	door := row.DoorOpen
	power := row.CompressorPowerW
	freq := row.CompressorFreqHz
	frost := row.FrostLevel
	cop := row.COP
	fault := row.Fault
	faultID := row.FaultID

	switch d.Personality {
	case Healthy:
		tCab = s.Jitter(-18.0, 0.05)
		door = false
		fault, faultID = FaultNormal, FaultIDNormal
		frost = s.Jitter(0.05, 0.1)

	case DoorAbuser:
		door = s.rng.Float64() < doorOpenProbability
		if door {
			tCab = s.Jitter(-12.0, 0.1)
		} else {
			tCab = s.Jitter(-17.0, 0.05)
		}
		fault, faultID = FaultNormal, FaultIDNormal

	case DyingCompressor:
		tCab = s.Jitter(CompressorBaseTemp(index), 0.1)
		power = s.Jitter(700.0, 0.1)
		freq = s.Jitter(95.0, 0.05)
		if tCab > faultTempThreshold {
			fault, faultID = FaultCompressorFail, FaultIDCompressorFail
		} else {
			fault, faultID = FaultNormal, FaultIDNormal
		}

	case FrostBuilder:
		tCab = s.Jitter(-16.0, 0.05)
		frost = math.Min(s.Jitter(0.6, 0.1), maxFrostLevel)
		fault, faultID = FaultNormal, FaultIDNormal

	case EnergyHog:
		tCab = s.Jitter(-17.0, 0.05)
		power = s.Jitter(650.0, 0.1)
		cop = s.Jitter(1.5, 0.1)
		fault, faultID = FaultNormal, FaultIDNormal
	}

	tCab = s.Jitter(tCab, 0.01)
	tAmb = s.Jitter(tAmb, DefaultJitter)

	return Reading{
		SensorType:       SensorType,
		DeviceID:         d.DeviceID,
		Lat:              d.Lat,
		Lon:              d.Lon,
		LocationName:     d.LocationName,
		TempCabinet:      round(tCab, 2),
		TempAmbient:      round(tAmb, 2),
		DoorOpen:         door,
		DefrostOn:        row.DefrostOn,
		CompressorPowerW: round(power, 1),
		CompressorFreqHz: round(freq, 1),
		FrostLevel:       round(frost, 3),
		COP:              round(cop, 2),
		Fault:            fault,
		FaultID:          faultID,
		Timestamp:        s.now().UTC().Format(TimestampLayout),
	}
}

// CompressorBaseTemp is the un-jittered cabinet temperature of a failing
// compressor after index readings: rising 1°C per 1000 readings from -10°C,
// capped at 5°C.
func CompressorBaseTemp(index int) float64 {
	return math.Min(-10.0+float64(index)/1000.0, 5.0)
}
