package cachewriter

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/kryptostream/obengine/pkg/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewRejectsMissingDir(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "does-not-exist"), "BTC-USD", zaptest.NewLogger(t))
	require.Error(t, err)
	var cfgErr *types.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestNewRejectsNonEmptyDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stray.txt"), []byte("x"), 0o644))

	_, err := New(dir, "BTC-USD", zaptest.NewLogger(t))
	require.Error(t, err)
	var cfgErr *types.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestWriterProducesSequentialFilesInArrivalOrder(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, "BTC-USD", zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotEmpty(t, w.RunID())

	frames := [][]byte{
		[]byte(`{"type":"snapshot","product_id":"BTC-USD"}`),
		[]byte(`{"type":"l2update","product_id":"BTC-USD"}`),
		[]byte(`{"type":"l2update","product_id":"BTC-USD"}`),
		[]byte(`{"type":"subscriptions"}`),
	}
	for _, f := range frames {
		require.NoError(t, w.Write(f))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, len(frames))

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)
	require.Equal(t, sorted, names, "lexicographic ordering must match arrival order")

	require.Equal(t, "000000_BTC-USD_snapshot.json", names[0])
	require.Equal(t, "000001_BTC-USD_l2update.json", names[1])
	require.Equal(t, "000002_BTC-USD_l2update.json", names[2])
	require.Equal(t, "000003_BTC-USD_subscriptions.json", names[3])
}

func TestWriterUnknownTypeStillWrites(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, "BTC-USD", zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, w.Write([]byte(`{"type":"last_trade_price"}`)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "000000_BTC-USD_last_trade_price.json", entries[0].Name())
}
