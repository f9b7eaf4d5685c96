// Package report renders the inventory as a printable PDF.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/PakBOSS-007/Jaga-pohon/internal/models"
)

// WritePDF renders a full inventory report: a summary header followed by
// one table row per tree, newest first.
func WritePDF(w io.Writer, summary *models.InventorySummary, trees []models.TreeRecord, generatedAt time.Time) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Jaga Pohon Inventory Report", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "Jaga Pohon Inventory Report")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 8, "Generated "+generatedAt.Format("2 January 2006 15:04 MST"))
	pdf.Ln(12)

	writeSummary(pdf, summary)
	writeConditionChart(pdf, summary)
	writeTreeTable(pdf, trees)

	return pdf.Output(w)
}

func writeSummary(pdf *fpdf.Fpdf, s *models.InventorySummary) {
	lines := []struct {
		label string
		value string
	}{
		{"Trees", fmt.Sprintf("%d (%d species)", s.TreeCount, s.SpeciesCount)},
		{"Condition", fmt.Sprintf("%d healthy, %d damaged, %d dead", s.HealthyCount, s.DamagedCount, s.DeadCount)},
		{"Stored carbon", fmt.Sprintf("%.0f kg (%.0f kg CO2)", s.TotalCarbonKg, s.TotalCO2Kg)},
		{"Stormwater intercepted", fmt.Sprintf("%.0f L/year", s.TotalStormwaterL)},
		{"Air pollutants removed", fmt.Sprintf("%.0f g/year", s.TotalAirGrams)},
		{"Annual benefit value", fmt.Sprintf("$%.2f", s.TotalAnnualValue)},
		{"Geolocated", fmt.Sprintf("%d of %d", s.GeolocatedCount, s.TreeCount)},
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	for _, l := range lines {
		pdf.CellFormat(55, 6, l.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, l.value, "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)
}

// writeConditionChart draws a horizontal bar per condition class.
func writeConditionChart(pdf *fpdf.Fpdf, s *models.InventorySummary) {
	if s.TreeCount == 0 {
		return
	}

	bars := []struct {
		label   string
		count   int
		r, g, b int
	}{
		{"Healthy", s.HealthyCount, 45, 122, 45},
		{"Damaged", s.DamagedCount, 176, 122, 0},
		{"Dead", s.DeadCount, 176, 0, 32},
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Condition breakdown")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)

	const maxBarWidth = 120.0
	for _, b := range bars {
		width := maxBarWidth * float64(b.count) / float64(s.TreeCount)
		pdf.CellFormat(30, 6, b.label, "", 0, "L", false, 0, "")
		x, y := pdf.GetX(), pdf.GetY()
		pdf.SetFillColor(b.r, b.g, b.b)
		pdf.Rect(x, y+1, width, 4, "F")
		pdf.SetX(x + maxBarWidth + 4)
		pdf.CellFormat(0, 6, fmt.Sprintf("%d", b.count), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)
}

func writeTreeTable(pdf *fpdf.Fpdf, trees []models.TreeRecord) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Trees")
	pdf.Ln(8)

	type col struct {
		title string
		width float64
	}
	cols := []col{
		{"#", 12},
		{"Species", 60},
		{"DBH (cm)", 22},
		{"Height (m)", 22},
		{"Condition", 22},
		{"CO2 (kg)", 22},
		{"Value ($/yr)", 24},
		{"Location", 46},
		{"Recorded", 30},
	}

	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 240, 230)
		for _, c := range cols {
			pdf.CellFormat(c.width, 7, c.title, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
	}
	header()

	for _, tr := range trees {
		// Repeat the header after a page break.
		if pdf.GetY() > 180 {
			pdf.AddPage()
			header()
		}

		location := ""
		if tr.Latitude.Valid && tr.Longitude.Valid {
			location = fmt.Sprintf("%.5f, %.5f", tr.Latitude.Float64, tr.Longitude.Float64)
		}

		cells := []string{
			fmt.Sprintf("%d", tr.ID),
			tr.Species,
			fmt.Sprintf("%.1f", tr.DBHCm),
			fmt.Sprintf("%.1f", tr.HeightM),
			string(tr.Condition),
			fmt.Sprintf("%.1f", tr.Carbon.CO2Kg),
			fmt.Sprintf("%.2f", tr.Services.TotalValue),
			location,
			tr.RecordedAt.Format("2006-01-02"),
		}
		for i, c := range cols {
			pdf.CellFormat(c.width, 6, cells[i], "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(trees) == 0 {
		pdf.CellFormat(0, 8, "No trees recorded yet.", "", 1, "L", false, 0, "")
	}
}
