package shared

import (
	"io"
	"math"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"
)

var (
	ErrDatasetNotFound = errors.New("dataset not found")
	ErrEmptyDataset    = errors.New("dataset has no rows")
)

// Column names of the historical freezer dataset.
const (
	ColTempCabinet = "T_cab_meas"
	ColTempAmbient = "T_amb"
	ColDoorOpen    = "door_open"
	ColDefrostOn   = "defrost_on"
	ColPower       = "P_comp_W"
	ColFrequency   = "N_comp_Hz"
	ColFrostLevel  = "frost_level"
	ColCOP         = "COP"
	ColFault       = "fault"
	ColFaultID     = "fault_id"
)

var datasetColumns = []string{
	ColTempCabinet, ColTempAmbient, ColDoorOpen, ColDefrostOn, ColPower,
	ColFrequency, ColFrostLevel, ColCOP, ColFault, ColFaultID,
}

// HistoricalRow is one observation of the source dataset.
type HistoricalRow struct {
	TempCabinet      float64
	TempAmbient      float64
	DoorOpen         bool
	DefrostOn        bool
	CompressorPowerW float64
	CompressorFreqHz float64
	FrostLevel       float64
	COP              float64
	Fault            string
	FaultID          int
}

// Dataset is the full, read-only historical series in file order.
type Dataset []HistoricalRow

func LoadCSV(path string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrDatasetNotFound, "open %s", path)
		}
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	ds, err := ReadCSV(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return ds, nil
}

func ReadCSV(r io.Reader) (Dataset, error) {
	df := dataframe.ReadCSV(r, dataframe.WithTypes(map[string]series.Type{
		ColFault: series.String,
	}))
	if df.Err != nil {
		return nil, errors.Wrap(df.Err, "parse csv")
	}
	if df.Nrow() == 0 {
		return nil, ErrEmptyDataset
	}

	cols := make(map[string]series.Series, len(datasetColumns))
	for _, name := range datasetColumns {
		s := df.Col(name)
		if s.Err != nil {
			return nil, errors.Errorf("missing column %q", name)
		}
		cols[name] = s
	}

	tCab := cols[ColTempCabinet].Float()
	tAmb := cols[ColTempAmbient].Float()
	door := cols[ColDoorOpen].Float()
	defrost := cols[ColDefrostOn].Float()
	power := cols[ColPower].Float()
	freq := cols[ColFrequency].Float()
	frost := cols[ColFrostLevel].Float()
	cop := cols[ColCOP].Float()
	fault := cols[ColFault].Records()
	faultID := cols[ColFaultID].Float()

	ds := make(Dataset, df.Nrow())
	for i := range ds {
		ds[i] = HistoricalRow{
			TempCabinet:      tCab[i],
			TempAmbient:      tAmb[i],
			DoorOpen:         flag(door[i]),
			DefrostOn:        flag(defrost[i]),
			CompressorPowerW: power[i],
			CompressorFreqHz: freq[i],
			FrostLevel:       frost[i],
			COP:              cop[i],
			Fault:            fault[i],
			FaultID:          code(faultID[i]),
		}
	}
	return ds, nil
}

func flag(v float64) bool {
	return v != 0 && !math.IsNaN(v)
}

func code(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Round(v))
}
