package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVJournalHeaders(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trades.csv")

	j, err := NewCSV(path)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	header, err := csv.NewReader(strings.NewReader(string(data))).Read()
	require.NoError(t, err)
	assert.Equal(t, tradeHeader, header)
}

func TestCSVJournalRecordTrade(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trades.csv")

	j, err := NewCSV(path)
	require.NoError(t, err)

	open := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	closeT := time.Date(2024, 1, 2, 7, 4, 5, 0, time.UTC)
	require.NoError(t, j.RecordTrade(TradeRecord{
		TradeID:    "T1",
		Pair:       "BTC/USDT",
		Direction:  Long,
		EntryPrice: 50_000,
		ExitPrice:  50_750,
		Size:       0.01,
		RiskUnit:   5,
		OpenTime:   open,
		CloseTime:  closeT,
		Reason:     ExitROI,
	}))
	require.NoError(t, j.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	r := csv.NewReader(strings.NewReader(string(data)))
	_, err = r.Read() // header
	require.NoError(t, err)
	row, err := r.Read()
	require.NoError(t, err)

	assert.Equal(t, "T1", row[0])
	assert.Equal(t, "BTC/USDT", row[1])
	assert.Equal(t, "long", row[2])
	assert.Equal(t, "50000.0000", row[3])
	assert.Equal(t, "roi_target", row[9])
}

func TestWriteExportCSVDeterministic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	trades := []TradeRecord{
		mkTrade("02", 2*time.Hour, -1),
		mkTrade("01", 1*time.Hour, 2),
	}
	recs := Export(trades)

	p1 := filepath.Join(dir, "a.csv")
	p2 := filepath.Join(dir, "b.csv")
	require.NoError(t, WriteExportCSV(p1, recs))
	require.NoError(t, WriteExportCSV(p2, recs))

	d1, err := os.ReadFile(p1)
	require.NoError(t, err)
	d2, err := os.ReadFile(p2)
	require.NoError(t, err)
	assert.Equal(t, string(d1), string(d2))

	header, err := csv.NewReader(strings.NewReader(string(d1))).Read()
	require.NoError(t, err)
	assert.Equal(t, exportHeader, header)
}
