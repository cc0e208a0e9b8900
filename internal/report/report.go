package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"crypto-reporter/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	LiveDataSheet = "Live Data"
	AnalysisSheet = "Analysis"

	MetricTopMarketCap  = "Top 5 Market Cap"
	MetricAveragePrice  = "Average Price"
	MetricHighestChange = "Highest Change"
	MetricLowestChange  = "Lowest Change"
)

// LiveDataColumns is the header row of the Live Data sheet, in order.
var LiveDataColumns = []string{
	"name",
	"symbol",
	"current_price",
	"market_cap",
	"total_volume",
	"price_change_percentage_24h",
}

// Writer renders snapshots and their analysis into an xlsx workbook.
type Writer struct{}

func NewWriter() *Writer {
	return &Writer{}
}

// Write replaces the workbook at dest. The file is written next to dest
// first and renamed into place, so readers never see a partial workbook.
func (w *Writer) Write(snapshot models.Snapshot, result *models.AnalysisResult, dest string) error {
	f, err := build(snapshot, result)
	if err != nil {
		return err
	}
	defer f.Close()

	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp report: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := f.WriteTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod report: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("replace report: %w", err)
	}
	return nil
}

func build(snapshot models.Snapshot, result *models.AnalysisResult) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", LiveDataSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeLiveData(f, snapshot); err != nil {
		f.Close()
		return nil, err
	}

	if _, err := f.NewSheet(AnalysisSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("create analysis sheet: %w", err)
	}
	if err := writeAnalysis(f, result); err != nil {
		f.Close()
		return nil, err
	}

	f.SetActiveSheet(0)
	return f, nil
}

func writeLiveData(f *excelize.File, snapshot models.Snapshot) error {
	header := make([]interface{}, len(LiveDataColumns))
	for i, c := range LiveDataColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(LiveDataSheet, "A1", &header); err != nil {
		return fmt.Errorf("write live data header: %w", err)
	}

	for i, r := range snapshot {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			r.Name,
			r.Symbol,
			optional(r.CurrentPrice),
			r.MarketCap,
			r.TotalVolume,
			optional(r.PriceChangePercentage24h),
		}
		if err := f.SetSheetRow(LiveDataSheet, cell, &row); err != nil {
			return fmt.Errorf("write live data row %d: %w", i+1, err)
		}
	}

	_ = f.SetColWidth(LiveDataSheet, "A", "A", 24)
	_ = f.SetColWidth(LiveDataSheet, "B", "F", 18)
	return nil
}

func writeAnalysis(f *excelize.File, result *models.AnalysisResult) error {
	rows := [][]interface{}{
		{"Metric", "Value"},
		{MetricTopMarketCap, FormatTopMarketCap(result.TopMarketCap)},
		{MetricAveragePrice, FormatAveragePrice(result)},
		{MetricHighestChange, FormatChange(result.HighestChange)},
		{MetricLowestChange, FormatChange(result.LowestChange)},
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(AnalysisSheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("write analysis row %d: %w", i, err)
		}
	}

	wrap, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return fmt.Errorf("create analysis style: %w", err)
	}
	if err := f.SetCellStyle(AnalysisSheet, "B2", "B2", wrap); err != nil {
		return fmt.Errorf("style analysis: %w", err)
	}
	_ = f.SetColWidth(AnalysisSheet, "A", "A", 20)
	_ = f.SetColWidth(AnalysisSheet, "B", "B", 48)
	return nil
}

func optional(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// ReadLiveData loads the Live Data sheet of a report back into a Snapshot.
func ReadLiveData(path string) (models.Snapshot, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open report: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(LiveDataSheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read live data: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("read live data: missing header")
	}
	for i, c := range LiveDataColumns {
		if i >= len(rows[0]) || rows[0][i] != c {
			return nil, fmt.Errorf("read live data: unexpected header %v", rows[0])
		}
	}

	snapshot := make(models.Snapshot, 0, len(rows)-1)
	for n, row := range rows[1:] {
		cols := make([]string, len(LiveDataColumns))
		copy(cols, row)

		record := models.AssetRecord{Name: cols[0], Symbol: cols[1]}
		if record.CurrentPrice, err = parseOptional(cols[2]); err != nil {
			return nil, fmt.Errorf("row %d current_price: %w", n+2, err)
		}
		if record.MarketCap, err = parseFloat(cols[3]); err != nil {
			return nil, fmt.Errorf("row %d market_cap: %w", n+2, err)
		}
		if record.TotalVolume, err = parseFloat(cols[4]); err != nil {
			return nil, fmt.Errorf("row %d total_volume: %w", n+2, err)
		}
		if record.PriceChangePercentage24h, err = parseOptional(cols[5]); err != nil {
			return nil, fmt.Errorf("row %d price_change_percentage_24h: %w", n+2, err)
		}
		snapshot = append(snapshot, record)
	}
	return snapshot, nil
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseOptional(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
