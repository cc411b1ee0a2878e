// Package report writes order reports as CSV files.
package report

import (
	"context"
	"encoding/csv"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"orderbot/internal/core/domain/model/order"
	"orderbot/internal/pkg/errs"
)

var header = []string{
	"id", "created_at", "status", "contact_name", "phone", "locality",
	"requested_item", "size", "comment", "user_id", "locale", "last_status_change_at",
}

// utf8BOM makes spreadsheet applications detect the encoding of Cyrillic text.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVGenerator implements ports.ReportGenerator.
type CSVGenerator struct {
	dir string
	loc *time.Location
}

// NewCSVGenerator writes reports into dir, formatting times in loc.
func NewCSVGenerator(dir string, loc *time.Location) (*CSVGenerator, error) {
	if dir == "" {
		return nil, errs.NewValueIsRequiredError("dir")
	}
	if loc == nil {
		loc = time.UTC
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &CSVGenerator{dir: dir, loc: loc}, nil
}

// Generate writes <name>.csv and returns its path. An existing file with the
// same name is replaced.
func (g *CSVGenerator) Generate(ctx context.Context, name string, orders []*order.Order) (path string, err error) {
	if name == "" || filepath.Base(name) != name {
		return "", errs.NewValueIsInvalidError("name")
	}
	path = filepath.Join(g.dir, name+".csv")

	tmp, err := os.CreateTemp(g.dir, name+"-*.tmp")
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(utf8BOM); err != nil {
		return "", errors.Join(err, tmp.Close())
	}
	w := csv.NewWriter(tmp)
	if err = w.Write(header); err != nil {
		return "", errors.Join(err, tmp.Close())
	}
	for _, o := range orders {
		if err = ctx.Err(); err != nil {
			return "", errors.Join(err, tmp.Close())
		}
		if err = w.Write(g.row(o)); err != nil {
			return "", errors.Join(err, tmp.Close())
		}
	}
	w.Flush()
	if err = w.Error(); err != nil {
		return "", errors.Join(err, tmp.Close())
	}
	if err = tmp.Close(); err != nil {
		return "", err
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return "", err
	}
	return path, nil
}

// Prune deletes the reports in the directory modified before the given time
// and returns how many were removed.
func (g *CSVGenerator) Prune(ctx context.Context, before time.Time) (int, error) {
	entries, err := os.ReadDir(g.dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if err = ctx.Err(); err != nil {
			return removed, err
		}
		if e.IsDir() || filepath.Ext(e.Name()) != ".csv" {
			continue
		}
		info, err := e.Info()
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return removed, err
		}
		if !info.ModTime().Before(before) {
			continue
		}
		if err = os.Remove(filepath.Join(g.dir, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func (g *CSVGenerator) row(o *order.Order) []string {
	return []string{
		strconv.FormatUint(o.ID(), 10),
		o.CreatedAt().In(g.loc).Format(time.DateTime),
		o.Status().String(),
		o.ContactName(),
		o.Phone(),
		o.Locality(),
		o.RequestedItem(),
		o.SizeDescriptor(),
		o.Comment(),
		o.UserID(),
		o.Locale().String(),
		o.LastStatusChangeAt().In(g.loc).Format(time.DateTime),
	}
}
