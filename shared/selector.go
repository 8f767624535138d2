package shared

import (
	"math"

	"github.com/montanaflynn/stats"
)

const (
	FaultNormal         = "NORMAL"
	FaultCompressorFail = "COMPRESSOR_FAIL"

	FaultIDNormal         = 0
	FaultIDCompressorFail = 3
)

// MinFilteredRows is the size floor for the frost_builder and energy_hog
// filters. A filtered set must be strictly larger or the full dataset is used.
const MinFilteredRows = 100

const frostThreshold = 0.1

// SelectRows returns the subsequence of ds a device with personality p replays.
// The result is a fresh slice in dataset order and is never empty for a
// non-empty dataset.
func SelectRows(ds Dataset, p Personality) []HistoricalRow {
	var rows []HistoricalRow

	switch p {
	case Healthy:
		rows = filterRows(ds, func(r HistoricalRow) bool {
			return r.Fault == FaultNormal && !r.DoorOpen
		})
	case DoorAbuser, DyingCompressor:
		// door and temperature are overridden during synthesis; the filter
		// only shapes the replay length.
		rows = filterRows(ds, func(r HistoricalRow) bool {
			return r.Fault == FaultNormal
		})
	case FrostBuilder:
		rows = withFloor(ds, filterRows(ds, func(r HistoricalRow) bool {
			return r.FrostLevel > frostThreshold
		}))
	case EnergyHog:
		median := medianPower(ds)
		rows = withFloor(ds, filterRows(ds, func(r HistoricalRow) bool {
			return r.CompressorPowerW > median
		}))
	default:
		rows = clone(ds)
	}

	if len(rows) == 0 {
		return clone(ds)
	}
	return rows
}

func filterRows(ds Dataset, keep func(HistoricalRow) bool) []HistoricalRow {
	out := make([]HistoricalRow, 0, len(ds))
	for _, r := range ds {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func withFloor(ds Dataset, rows []HistoricalRow) []HistoricalRow {
	if len(rows) > MinFilteredRows {
		return rows
	}
	return clone(ds)
}

func medianPower(ds Dataset) float64 {
	data := make(stats.Float64Data, 0, len(ds))
	for _, r := range ds {
		if math.IsNaN(r.CompressorPowerW) {
			continue
		}
		data = append(data, r.CompressorPowerW)
	}
	m, err := stats.Median(data)
	if err != nil {
		return 0
	}
	return m
}

func clone(ds Dataset) []HistoricalRow {
	out := make([]HistoricalRow, len(ds))
	copy(out, ds)
	return out
}
