package export

import (
	"fmt"
	"io"

	"github.com/groceryscout/backend/internal/domain"
	"github.com/xuri/excelize/v2"
)

const (
	historySheet = "History"
	summarySheet = "Summary"
	priceFormat  = "0.00"
)

// ContentType is the MIME type of the generated workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// FileName returns the download name for a product's workbook
func FileName(product string) string {
	return fmt.Sprintf("price-history-%s.xlsx", slug(product))
}

// WriteHistoryWorkbook renders a product's price history as an xlsx workbook.
// The History sheet lists every point by store and bucket; the Summary sheet
// carries the statistics, or a note when there is no data yet.
func WriteHistoryWorkbook(w io.Writer, view *domain.HistoryView) error {
	if view == nil {
		return fmt.Errorf("history view is required")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", historySheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	numFmt := priceFormat
	price, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return err
	}

	if err := writeHistorySheet(f, view, header, price); err != nil {
		return err
	}
	if err := writeSummarySheet(f, view, header, price); err != nil {
		return err
	}

	return f.Write(w)
}

func writeHistorySheet(f *excelize.File, view *domain.HistoryView, header, price int) error {
	if err := f.SetSheetRow(historySheet, "A1", &[]interface{}{"Store", "Hour (UTC)", "Price"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(historySheet, "A1", "C1", header); err != nil {
		return err
	}

	row := 2
	for _, series := range view.Series {
		for _, point := range series.Points {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(historySheet, cell, &[]interface{}{series.Store, point.Date, point.Price}); err != nil {
				return err
			}
			row++
		}
	}

	if row > 2 {
		last, _ := excelize.CoordinatesToCellName(3, row-1)
		if err := f.SetCellStyle(historySheet, "C2", last, price); err != nil {
			return err
		}
	}
	return f.SetColWidth(historySheet, "A", "B", 24)
}

func writeSummarySheet(f *excelize.File, view *domain.HistoryView, header, price int) error {
	if err := f.SetSheetRow(summarySheet, "A1", &[]interface{}{"Product", view.Product}); err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, "A1", "A1", header); err != nil {
		return err
	}

	stats := view.Stats
	if stats == nil {
		return f.SetSheetRow(summarySheet, "A3", &[]interface{}{"Not enough data"})
	}

	rows := [][]interface{}{
		{"Lowest", stats.Min},
		{"Highest", stats.Max},
		{"Average", stats.Avg},
		{"Median", stats.Median},
		{"Best deal", stats.BestDeal.Price},
		{"Best deal store", stats.BestDeal.Store},
		{"Best deal hour (UTC)", stats.BestDeal.Date},
		{"Observations", stats.PointCount},
		{"Stores", stats.StoreCount},
	}
	for i, values := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+3)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &values); err != nil {
			return err
		}
	}

	if err := f.SetCellStyle(summarySheet, "B3", "B7", price); err != nil {
		return err
	}
	return f.SetColWidth(summarySheet, "A", "B", 24)
}

func slug(s string) string {
	out := make([]rune, 0, len(s))
	dash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
			dash = false
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
			dash = false
		default:
			if !dash && len(out) > 0 {
				out = append(out, '-')
				dash = true
			}
		}
	}
	if dash {
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return "product"
	}
	return string(out)
}
