package sink

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/resynctech/resync-cloud/fleetsim/shared"
)

func TestSQLiteSend(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "fleet.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	other := testReading()
	other.DeviceID = "FREEZER_005"

	require.NoError(t, s.Send(ctx, testReading()))
	require.NoError(t, s.Send(ctx, testReading()))
	require.NoError(t, s.Send(ctx, other))

	n, err := s.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = s.Count(ctx, "FREEZER_003")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var rec ReadingRecord
	require.NoError(t, s.db.Where("device_id = ?", "FREEZER_005").First(&rec).Error)
	assert.Equal(t, "Birmingham", rec.LocationName)
	assert.Equal(t, -4.12, rec.TempCabinet)
	assert.Equal(t, shared.FaultIDCompressorFail, rec.FaultID)
	assert.True(t, testTime.Equal(rec.Timestamp))
}

func TestSQLiteSendBadTimestamp(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "fleet.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	r := testReading()
	r.Timestamp = ""
	assert.Error(t, s.Send(context.Background(), r))
}
