package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"github.com/wesm/leaddesk/internal/fileutil"
	"github.com/wesm/leaddesk/internal/query"
	"github.com/wesm/leaddesk/internal/textutil"
)

var header = []string{
	"ID", "Name", "Email", "Phone", "Company", "Source", "Status",
	"Owner", "Campaign", "Value", "Created", "Updated",
}

const timestampLayout = "2006-01-02 15:04:05"

func formatValue(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func record(l query.Lead) []string {
	return []string{
		strconv.FormatInt(l.ID, 10),
		textutil.CleanCell(l.Name),
		textutil.CleanCell(l.Email),
		textutil.CleanCell(l.Phone),
		textutil.CleanCell(l.Company),
		textutil.CleanCell(l.Source),
		l.Status.Label(),
		textutil.CleanCell(l.OwnerName),
		textutil.CleanCell(l.CampaignName),
		formatValue(l.ValueCents),
		l.CreatedAt.UTC().Format(timestampLayout),
		l.UpdatedAt.UTC().Format(timestampLayout),
	}
}

// WriteCSV writes leads as CSV with a header row.
func WriteCSV(w io.Writer, leads []query.Lead) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, l := range leads {
		if err := cw.Write(record(l)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

const sheetName = "Leads"

// WriteExcel writes leads as an XLSX workbook with a single sheet.
func WriteExcel(w io.Writer, leads []query.Lead) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return err
	}
	if err := sw.SetColWidth(2, 5, 24); err != nil {
		return err
	}

	row := make([]interface{}, len(header))
	for i, h := range header {
		row[i] = h
	}
	if err := sw.SetRow("A1", row); err != nil {
		return err
	}
	for i, l := range leads {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		rec := record(l)
		row := make([]interface{}, len(rec))
		for j, v := range rec {
			row[j] = v
		}
		// Numeric cells stay numeric so spreadsheets can sum them.
		row[0] = l.ID
		row[9] = float64(l.ValueCents) / 100
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	return f.Write(w)
}

// write renders leads in format f.
func write(w io.Writer, f Format, leads []query.Lead) error {
	if f == FormatExcel {
		return WriteExcel(w, leads)
	}
	return WriteCSV(w, leads)
}

// SanitizeFilename replaces characters that are unsafe in file names.
func SanitizeFilename(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '-'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
	return strings.Trim(s, ".-")
}

// writeFile creates a new owner-only file in dir and writes leads to it.
// Names never overwrite an existing file.
func writeFile(dir, name string, f Format, leads []query.Lead, now time.Time) (string, error) {
	if err := fileutil.SecureMkdirAll(dir, 0o700); err != nil {
		return "", eris.Wrapf(err, "create export directory %s", dir)
	}

	base := SanitizeFilename(name)
	if base == "" {
		base = "leads"
	}
	base += "-" + now.Format("20060102-150405")

	var file *os.File
	var path string
	for i := 0; ; i++ {
		path = filepath.Join(dir, base+f.Ext())
		if i > 0 {
			path = filepath.Join(dir, fmt.Sprintf("%s-%d%s", base, i, f.Ext()))
		}
		var err error
		file, err = fileutil.CreateExclusive(path, 0o600)
		if err == nil {
			break
		}
		if !errors.Is(err, fs.ErrExist) || i >= 100 {
			return "", eris.Wrapf(err, "create export file %s", path)
		}
	}

	if err := write(file, f, leads); err != nil {
		file.Close()
		os.Remove(path)
		return "", eris.Wrapf(err, "write %s", path)
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return "", eris.Wrapf(err, "close %s", path)
	}
	return path, nil
}
