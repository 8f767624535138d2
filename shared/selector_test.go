package shared

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeDataset(n int, fill func(i int) HistoricalRow) Dataset {
	ds := make(Dataset, n)
	for i := range ds {
		ds[i] = fill(i)
	}
	return ds
}

func allPersonalities() []Personality {
	return []Personality{Healthy, DoorAbuser, DyingCompressor, FrostBuilder, EnergyHog, "mystery"}
}

func TestSelectRowsNeverEmpty(t *testing.T) {
	datasets := map[string]Dataset{
		"mixed": makeDataset(20, func(i int) HistoricalRow {
			return HistoricalRow{Fault: FaultNormal, DoorOpen: i%2 == 0, FrostLevel: 0.5, CompressorPowerW: float64(i)}
		}),
		// no row passes the healthy or door/compressor filters
		"all faulty": makeDataset(5, func(i int) HistoricalRow {
			return HistoricalRow{Fault: FaultCompressorFail, FaultID: 3, DoorOpen: true}
		}),
		"single": {{Fault: FaultNormal}},
	}

	for name, ds := range datasets {
		for _, p := range allPersonalities() {
			t.Run(name+"/"+string(p), func(t *testing.T) {
				assert.NotEmpty(t, SelectRows(ds, p))
			})
		}
	}
}

func TestSelectRowsHealthy(t *testing.T) {
	ds := Dataset{
		{Fault: FaultNormal, DoorOpen: false, TempCabinet: 1},
		{Fault: FaultNormal, DoorOpen: true, TempCabinet: 2},
		{Fault: "DOOR_LEFT_OPEN", DoorOpen: false, TempCabinet: 3},
		{Fault: FaultNormal, DoorOpen: false, TempCabinet: 4},
	}

	rows := SelectRows(ds, Healthy)
	require.Len(t, rows, 2)
	assert.Equal(t, 1.0, rows[0].TempCabinet)
	assert.Equal(t, 4.0, rows[1].TempCabinet)
}

func TestSelectRowsNormalOnly(t *testing.T) {
	ds := Dataset{
		{Fault: FaultNormal, DoorOpen: true, TempCabinet: 1},
		{Fault: FaultCompressorFail, TempCabinet: 2},
		{Fault: FaultNormal, DoorOpen: false, TempCabinet: 3},
	}

	for _, p := range []Personality{DoorAbuser, DyingCompressor} {
		rows := SelectRows(ds, p)
		require.Len(t, rows, 2, p)
		assert.Equal(t, 1.0, rows[0].TempCabinet)
		assert.Equal(t, 3.0, rows[1].TempCabinet)
	}
}

func TestSelectRowsFrostBuilder(t *testing.T) {
	tests := []struct {
		name         string
		frosty       int
		wantRows     int
		wantFiltered bool
	}{
		{name: "above floor", frosty: 101, wantRows: 101, wantFiltered: true},
		{name: "at floor", frosty: 100, wantRows: 250},
		{name: "none", frosty: 0, wantRows: 250},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// every fifth row stays clear so order preservation is visible
			assigned := 0
			ds := makeDataset(250, func(i int) HistoricalRow {
				frost := 0.05
				if i%5 != 0 && assigned < tc.frosty {
					frost = 0.5
					assigned++
				}
				return HistoricalRow{FrostLevel: frost, TempAmbient: float64(i)}
			})

			var want []HistoricalRow
			for _, r := range ds {
				if r.FrostLevel > 0.1 {
					want = append(want, r)
				}
			}
			require.Len(t, want, tc.frosty)

			rows := SelectRows(ds, FrostBuilder)
			require.Len(t, rows, tc.wantRows)
			if tc.wantFiltered {
				assert.Equal(t, want, rows)
			} else {
				assert.Equal(t, []HistoricalRow(ds), rows)
			}
		})
	}
}

func TestSelectRowsEnergyHog(t *testing.T) {
	// powers 0..n-1: exactly half the rows sit above the median
	big := makeDataset(300, func(i int) HistoricalRow {
		return HistoricalRow{CompressorPowerW: float64(i)}
	})
	rows := SelectRows(big, EnergyHog)
	require.Len(t, rows, 150)
	assert.Equal(t, 150.0, rows[0].CompressorPowerW)
	assert.Equal(t, 299.0, rows[149].CompressorPowerW)

	small := makeDataset(150, func(i int) HistoricalRow {
		return HistoricalRow{CompressorPowerW: float64(i)}
	})
	assert.Len(t, SelectRows(small, EnergyHog), 150)
}

func TestMedianPowerSkipsNaN(t *testing.T) {
	nan := math.NaN()
	ds := Dataset{
		{CompressorPowerW: nan},
		{CompressorPowerW: nan},
		{CompressorPowerW: 1},
		{CompressorPowerW: 2},
		{CompressorPowerW: 3},
	}
	assert.Equal(t, 2.0, medianPower(ds))
	assert.Equal(t, 0.0, medianPower(Dataset{{CompressorPowerW: nan}}))
}

func TestSelectRowsEnergyHogBlankPower(t *testing.T) {
	// 100 blank cells must not drag the median below the 300 real values
	ds := makeDataset(400, func(i int) HistoricalRow {
		if i < 100 {
			return HistoricalRow{CompressorPowerW: math.NaN()}
		}
		return HistoricalRow{CompressorPowerW: float64(i - 100)}
	})
	rows := SelectRows(ds, EnergyHog)
	require.Len(t, rows, 150)
	assert.Equal(t, 150.0, rows[0].CompressorPowerW)
}

func TestSelectRowsUnknownIsFreshCopy(t *testing.T) {
	ds := Dataset{{Fault: FaultNormal, TempCabinet: -18}, {Fault: "X", TempCabinet: -10}}

	rows := SelectRows(ds, "mystery")
	require.Equal(t, []HistoricalRow(ds), rows)

	rows[0].TempCabinet = 99
	assert.Equal(t, -18.0, ds[0].TempCabinet)
}
