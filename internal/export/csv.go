package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/wonny/gainerscout/internal/finviz"
)

// Write renders records as CSV: one header row of finviz.Columns, then one
// row per record. Absent fields are empty cells.
func Write(w io.Writer, records []*finviz.StockRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(finviz.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(finviz.Columns))
	for _, record := range records {
		for i, col := range finviz.Columns {
			row[i], _ = record.Field(col)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write %s: %w", record.Ticker, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCSV replaces the file at path with the rendered records.
// The file is written next to path first and renamed into place.
func WriteCSV(path string, records []*finviz.StockRecord) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // rename 후에는 no-op

	if err := Write(tmp, records); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
