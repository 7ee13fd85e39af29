package journal

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	j, err := NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	return j, path
}

func testFill(runID string, day int, instr string) FillRecord {
	return FillRecord{
		FillID:     runID + "-" + instr + "-" + string(rune('A'+day)),
		RunID:      runID,
		Instrument: instr,
		Side:       "BUY",
		Quantity:   10,
		Price:      100.5,
		Commission: 0.5,
		Day:        day,
		Date:       time.Date(2024, 1, 1+day, 0, 0, 0, 0, time.UTC),
		CashDelta:  -1005.5,
		Reason:     "",
	}
}

func testEquity(runID string, day int, equity float64) EquityRecord {
	return EquityRecord{
		RunID:    runID,
		Day:      day,
		Date:     time.Date(2024, 1, 1+day, 0, 0, 0, 0, time.UTC),
		Cash:     equity / 2,
		Equity:   equity,
		Realized: 0,
	}
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	assert.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('fills','equity')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	require.NoError(t, rows.Err())

	assert.True(t, found["fills"])
	assert.True(t, found["equity"])
}

func TestSQLiteRecordAndListFills(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)

	require.NoError(t, j.RecordFill(testFill("R1", 1, "ACME")))
	require.NoError(t, j.RecordFill(testFill("R1", 0, "ACME")))
	require.NoError(t, j.RecordFill(testFill("R2", 0, "ZORG")))

	fills, err := j.ListFills("R1")
	require.NoError(t, err)
	require.Len(t, fills, 2)

	// Ordered by day, other runs excluded.
	assert.Equal(t, 0, fills[0].Day)
	assert.Equal(t, 1, fills[1].Day)
	assert.Equal(t, "ACME", fills[0].Instrument)
	assert.Equal(t, "BUY", fills[0].Side)
	assert.InDelta(t, -1005.5, fills[0].CashDelta, 1e-9)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), fills[0].Date.UTC())
}

func TestSQLiteRecordAndListEquity(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)

	require.NoError(t, j.RecordEquity(testEquity("R1", 0, 1000)))
	require.NoError(t, j.RecordEquity(testEquity("R1", 1, 1100)))
	require.NoError(t, j.RecordEquity(testEquity("R2", 0, 500)))

	curve, err := j.ListEquity("R1")
	require.NoError(t, err)
	require.Len(t, curve, 2)
	assert.InDelta(t, 1000, curve[0].Equity, 1e-9)
	assert.InDelta(t, 1100, curve[1].Equity, 1e-9)
}

func TestSQLiteListRunsAndLatest(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)

	// ULID run IDs sort lexicographically by creation time.
	require.NoError(t, j.RecordEquity(testEquity("01A", 0, 100)))
	require.NoError(t, j.RecordEquity(testEquity("01B", 0, 100)))
	require.NoError(t, j.RecordEquity(testEquity("01B", 1, 110)))

	runs, err := j.ListRuns()
	require.NoError(t, err)
	assert.Equal(t, []string{"01B", "01A"}, runs)

	latest, err := j.LatestRun()
	require.NoError(t, err)
	assert.Equal(t, "01B", latest)
}

func TestSQLiteLatestRunEmpty(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)

	_, err := j.LatestRun()
	assert.Error(t, err)
}
