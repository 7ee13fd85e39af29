package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readRows(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVJournalWritesHeadersAndRecords(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fillsPath := filepath.Join(dir, "fills.csv")
	equityPath := filepath.Join(dir, "equity.csv")

	j, err := NewCSV(fillsPath, equityPath)
	require.NoError(t, err)

	require.NoError(t, j.RecordFill(testFill("R1", 0, "ACME")))
	require.NoError(t, j.RecordEquity(testEquity("R1", 0, 1000)))
	require.NoError(t, j.Close())

	fills := readRows(t, fillsPath)
	require.Len(t, fills, 2)
	assert.Equal(t, "fill_id", fills[0][0])
	assert.Equal(t, "R1", fills[1][1])
	assert.Equal(t, "ACME", fills[1][2])
	assert.Equal(t, "BUY", fills[1][3])
	assert.Equal(t, "10", fills[1][4])

	equity := readRows(t, equityPath)
	require.Len(t, equity, 2)
	assert.Equal(t, "run_id", equity[0][0])
	assert.Equal(t, "1000", equity[1][4])
}

func TestCSVJournalHeaderWriteFailure(t *testing.T) {
	t.Parallel()

	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}

	// The header flush fails with ENOSPC; the constructor must return the
	// error rather than a half-initialized journal.
	j, err := NewCSV("/dev/full", filepath.Join(t.TempDir(), "equity.csv"))
	assert.Error(t, err)
	assert.Nil(t, j)
}

func TestCSVJournalFlushesPerRecord(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fillsPath := filepath.Join(dir, "fills.csv")
	equityPath := filepath.Join(dir, "equity.csv")

	j, err := NewCSV(fillsPath, equityPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	require.NoError(t, j.RecordEquity(testEquity("R1", 0, 1000)))

	// Visible before Close: a crashed run still leaves its samples.
	equity := readRows(t, equityPath)
	assert.Len(t, equity, 2)
}
