package table

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// writeWorkbook saves rows (header first) to a new workbook in sheet.
func writeWorkbook(t *testing.T, path, sheet string, rows [][]interface{}) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	_, err := f.NewSheet(sheet)
	require.NoError(t, err)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	require.NoError(t, f.SaveAs(path))
}

func TestLoadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ovens.xlsx")
	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	writeWorkbook(t, path, "DATA", [][]interface{}{
		{"DATETIME", "DATE", "CW", "OvenA", "LCL", "UCL"},
		{day.Add(8 * time.Hour), day, 1, 180.5, 170, 190},
		{day.Add(32 * time.Hour), day.AddDate(0, 0, 1), 1, 181.25, 170, 190},
	})

	ds, err := NewLoader(0).LoadSource(context.Background(), Source{Name: "dataset1", Path: path})
	require.NoError(t, err)

	assert.Equal(t, "dataset1", ds.Name)
	assert.Equal(t, path, ds.FilePath)
	assert.Equal(t, []string{"DATETIME", "DATE", "CW", "OvenA", "LCL", "UCL"}, ds.Headers)
	require.Equal(t, 2, ds.NumRows())
	assert.Equal(t, "180.5", ds.Rows[0][3])

	// dates are read raw, as serial numbers
	serial, err := strconv.ParseFloat(ds.Rows[0][1], 64)
	require.NoError(t, err)
	assert.InDelta(t, 45658, serial, 0.001)
}

func TestLoadXLSXMissingSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ovens.xlsx")
	writeWorkbook(t, path, "OTHER", [][]interface{}{{"DATETIME", "DATE"}})

	_, err := NewLoader(0).LoadSource(context.Background(), Source{Name: "d", Path: path, Sheet: "DATA"})
	require.Error(t, err)

	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "d", le.Source)
	assert.True(t, errors.Is(err, ErrMissingSheet))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader(0).LoadSource(context.Background(), Source{Name: "d", Path: filepath.Join(t.TempDir(), "nope.xlsx")})
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Contains(t, le.Error(), "nope.xlsx")
}

func TestLoadMissingDateColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ovens.csv")
	require.NoError(t, os.WriteFile(path, []byte("DATETIME,OvenA\n2025-01-01 08:00,1\n"), 0o644))

	_, err := NewLoader(0).LoadSource(context.Background(), Source{Name: "d", Path: path})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))
	assert.Contains(t, err.Error(), "DATE")
}

func TestLoadCSVSemicolon(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ovens.csv")
	body := "DATETIME;DATE;OvenA\n2025-01-01 08:00;2025-01-01;180\n\n2025-01-02 08:00;2025-01-02\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	ds, err := NewLoader(0).LoadSource(context.Background(), Source{Name: "d", Kind: KindCSV, Path: path})
	require.NoError(t, err)
	assert.Equal(t, []string{"DATETIME", "DATE", "OvenA"}, ds.Headers)
	assert.Equal(t, [][]string{
		{"2025-01-01 08:00", "2025-01-01", "180"},
		{"2025-01-02 08:00", "2025-01-02", ""},
	}, ds.Rows)
}

func TestLoadSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ovens.db")
	db, err := sql.Open(DriverSQLite, path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE readings ("DATETIME" TEXT, "DATE" TEXT, "MEM19" REAL, note TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO readings VALUES ('2025-01-01 08:00:00', '2025-01-01', 181.5, NULL)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	ds, err := NewLoader(time.Second).LoadSource(context.Background(), Source{
		Name:   "dataset5",
		Kind:   KindSQL,
		Driver: DriverSQLite,
		DSN:    path,
		Table:  "readings",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"DATETIME", "DATE", "MEM19", "note"}, ds.Headers)
	assert.Equal(t, [][]string{{"2025-01-01 08:00:00", "2025-01-01", "181.5", ""}}, ds.Rows)
}

func TestLoadSQLRejectsUnknownDriver(t *testing.T) {
	_, err := NewLoader(0).LoadSource(context.Background(), Source{Name: "d", Kind: KindSQL, Driver: "oracle", Table: "t"})
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "oracle:t", le.Path)
}

func TestLoadUnknownKind(t *testing.T) {
	_, err := NewLoader(0).LoadSource(context.Background(), Source{Name: "d", Kind: "parquet", Path: "x"})
	assert.True(t, errors.Is(err, ErrUnknownKind))
}

func TestLoadStopsAtFirstFailure(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.csv")
	require.NoError(t, os.WriteFile(good, []byte("DATETIME,DATE,OvenA\n2025-01-01,2025-01-01,1\n"), 0o644))

	store, err := NewLoader(0).Load(context.Background(), []Source{
		{Name: "good", Path: good},
		{Name: "bad", Path: filepath.Join(dir, "missing.csv")},
	})
	assert.Nil(t, store)
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "bad", le.Source)
}

func TestQuoteTable(t *testing.T) {
	assert.Equal(t, `"public"."oven ""readings"""`, quoteTable(`public.oven "readings"`))
}

func TestSourceKindInference(t *testing.T) {
	assert.Equal(t, KindCSV, Source{Path: "a.CSV"}.ResolvedKind())
	assert.Equal(t, KindXLSX, Source{Path: "a.xlsx"}.ResolvedKind())
	assert.Equal(t, KindSQL, Source{Table: "t"}.ResolvedKind())
	assert.Equal(t, DefaultSheet, Source{}.sheet())
	assert.Len(t, DefaultSources(), 4)
}
