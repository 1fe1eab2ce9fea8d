package trends

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/wesm/strend/internal/fileutil"
)

// Table is a row-major export: row 0 is the header ["Month", label...], the
// remaining rows are [month label, value...].
type Table [][]string

// Empty reports whether the table carries no series.
func (t Table) Empty() bool {
	return len(t) == 0 || len(t[0]) <= 1
}

// Header returns row 0.
func (t Table) Header() []string {
	if len(t) == 0 {
		return nil
	}
	return t[0]
}

// Rows returns the data rows.
func (t Table) Rows() [][]string {
	if len(t) == 0 {
		return nil
	}
	return t[1:]
}

// BuildExport lays out the selected series of c, one column per series in
// the order of selected and one row per month. Months a series has no point
// for are left blank.
func BuildExport(c *Chart, selected []int) Table {
	header := []string{"Month"}
	if c == nil {
		return Table{header}
	}
	series := c.Select(selected)
	for _, s := range series {
		header = append(header, s.Label)
	}
	table := make(Table, 0, len(c.XLabels)+1)
	table = append(table, header)
	for i, month := range c.XLabels {
		row := make([]string, 1, len(series)+1)
		row[0] = month
		for _, s := range series {
			if i < len(s.Data) {
				row = append(row, strconv.FormatFloat(s.Data[i].Y, 'f', -1, 64))
			} else {
				row = append(row, "")
			}
		}
		table = append(table, row)
	}
	return table
}

// WriteCSV writes t as CSV. A table without series is refused with
// ErrNothingToExport.
func WriteCSV(w io.Writer, t Table) error {
	if t.Empty() {
		return ErrNothingToExport
	}
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(t); err != nil {
		return eris.Wrap(err, "write csv")
	}
	return nil
}

// SaveCSV writes t to path, replacing any existing file. Nothing is created
// for a table without series.
func SaveCSV(path string, t Table) (err error) {
	if t.Empty() {
		return ErrNothingToExport
	}
	f, err := fileutil.SecureOpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = eris.Wrapf(cerr, "close %s", path)
		}
	}()
	return WriteCSV(f, t)
}
