package report_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"orderbot/internal/adapters/out/report"
	"orderbot/internal/core/domain/model/order"
	"orderbot/internal/pkg/errs"
	"orderbot/internal/pkg/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_CSVGenerator(t *testing.T) {
	dir := t.TempDir()
	tashkent := time.FixedZone("UZT", 5*60*60)
	g, err := report.NewCSVGenerator(dir, tashkent)
	require.NoError(t, err)

	first := testdb.NewOrder(t, time.Date(2026, 9, 1, 4, 30, 0, 0, time.UTC))
	require.NoError(t, first.AssignID(1))
	second := testdb.NewOrder(t, time.Date(2026, 9, 2, 19, 0, 0, 0, time.UTC))
	require.NoError(t, second.AssignID(2))

	path, err := g.Generate(t.Context(), "orders-2026-09", []*order.Order{first, second})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "orders-2026-09.csv"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}))

	rows, err := csv.NewReader(bytes.NewReader(raw[3:])).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "id", rows[0][0])
	assert.Equal(t, []string{"1", "2026-09-01 09:30:00", "new", "Анна"}, rows[1][:4])
	assert.Equal(t, "2026-09-03 00:00:00", rows[2][1])

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}

func Test_CSVGeneratorEmptyMonth(t *testing.T) {
	g, err := report.NewCSVGenerator(t.TempDir(), nil)
	require.NoError(t, err)

	path, err := g.Generate(t.Context(), "orders-2026-02", nil)
	require.NoError(t, err)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	rows, err := csv.NewReader(bytes.NewReader(raw[3:])).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func Test_CSVGeneratorRejectsBadInput(t *testing.T) {
	_, err := report.NewCSVGenerator("", nil)
	assert.ErrorIs(t, err, errs.ErrValueIsRequired)

	g, err := report.NewCSVGenerator(t.TempDir(), nil)
	require.NoError(t, err)
	_, err = g.Generate(t.Context(), "../escape", nil)
	assert.ErrorIs(t, err, errs.ErrValueIsInvalid)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err = g.Generate(ctx, "cancelled", []*order.Order{testdb.NewOrder(t, time.Now())})
	assert.ErrorIs(t, err, context.Canceled)
}

func Test_CSVGeneratorPrune(t *testing.T) {
	dir := t.TempDir()
	g, err := report.NewCSVGenerator(dir, nil)
	require.NoError(t, err)

	old, err := g.Generate(t.Context(), "orders-2026-08", nil)
	require.NoError(t, err)
	fresh, err := g.Generate(t.Context(), "orders-2026-09", nil)
	require.NoError(t, err)
	notes := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("keep"), 0o644))

	now := time.Date(2026, 9, 30, 12, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(old, now.Add(-8*24*time.Hour), now.Add(-8*24*time.Hour)))
	require.NoError(t, os.Chtimes(fresh, now.Add(-6*24*time.Hour), now.Add(-6*24*time.Hour)))
	require.NoError(t, os.Chtimes(notes, now.Add(-30*24*time.Hour), now.Add(-30*24*time.Hour)))

	removed, err := g.Prune(t.Context(), now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
	assert.FileExists(t, notes, "only reports are pruned")

	removed, err = g.Prune(t.Context(), now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, removed)
}
