package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"repairindex/guides"
)

// WriteXLSX exports the report entries as a spreadsheet. Guide lists
// are flattened to one URL per line inside the cell.
func WriteXLSX(path string, entries []Entry) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheetName = "Devices"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	headers := []string{
		"Name", "Title", "Repairability Score", "Scorecard Version",
		"Brand", "Link", "Teardown Guides", "French Score",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}
	if err := f.SetCellStyle(sheetName, "A1", "H1", headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, entry := range entries {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), entry.Name)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), entry.Title)
		if entry.RepairabilityScore != nil {
			f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), *entry.RepairabilityScore)
		}
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), entry.ScorecardVersion)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), derefOrEmpty(entry.Brand))
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), derefOrEmpty(entry.Link))
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), guideLines(entry.TeardownURLs))
		if entry.FrenchScore != nil {
			f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), *entry.FrenchScore)
		}
	}

	widths := []float64{30, 30, 12, 12, 15, 45, 60, 12}
	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, width)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save spreadsheet: %w", err)
	}
	return nil
}

func guideLines(guideList []guides.Guide) string {
	lines := make([]string, 0, len(guideList))
	for _, g := range guideList {
		lines = append(lines, g.Title+" : "+g.URL)
	}
	return strings.Join(lines, "\n")
}
