package trends

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/wesm/strend/internal/testutil"
)

func threeSeriesChart() *Chart {
	mk := func(label string, ys ...float64) Points {
		data := make([]Point, len(ys))
		for i, y := range ys {
			data[i] = Point{X: float64(i), Y: y}
		}
		return Points{Label: label, Data: data}
	}
	return newChart([]Points{
		mk("A", 1, 2),
		mk("B", 10, 20),
		mk("C", 0.5, 1500000),
	}, []string{"Jan 2020", "Feb 2020"})
}

func TestBuildExport(t *testing.T) {
	got := BuildExport(threeSeriesChart(), []int{0, 2})
	want := Table{
		{"Month", "A", "C"},
		{"Jan 2020", "1", "0.5"},
		{"Feb 2020", "2", "1500000"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}
	for i, row := range got {
		if len(row) != 3 {
			t.Errorf("row %d has %d columns, want 3", i, len(row))
		}
	}
}

func TestBuildExportHeaderOnly(t *testing.T) {
	got := BuildExport(threeSeriesChart(), nil)
	if !got.Empty() {
		t.Errorf("table with no selection should be empty: %v", got)
	}
	testutil.AssertStrings(t, got.Header(), "Month")

	if err := WriteCSV(&bytes.Buffer{}, got); !errors.Is(err, ErrNothingToExport) {
		t.Errorf("WriteCSV err = %v, want ErrNothingToExport", err)
	}

	path := filepath.Join(t.TempDir(), "data.csv")
	if err := SaveCSV(path, got); !errors.Is(err, ErrNothingToExport) {
		t.Errorf("SaveCSV err = %v, want ErrNothingToExport", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("SaveCSV created a file for an empty table: %v", err)
	}
}

func TestBuildExportShortSeriesLeavesBlanks(t *testing.T) {
	c := threeSeriesChart()
	c.XLabels = append(c.XLabels, "Mar 2020")
	got := BuildExport(c, []int{1})
	if diff := cmp.Diff([]string{"Mar 2020", ""}, got[3]); diff != "" {
		t.Errorf("last row mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	testutil.MustNoErr(t, SaveCSV(path, BuildExport(threeSeriesChart(), []int{1})), "SaveCSV")
	testutil.AssertFileContent(t, path, "Month,B\nJan 2020,10\nFeb 2020,20\n")
}
