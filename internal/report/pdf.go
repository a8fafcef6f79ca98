// Package report renders expense history as a downloadable PDF.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/fatali-fataliyev/expense_manager/internal/expense"
	"github.com/go-pdf/fpdf"
)

const (
	MAX_TITLE_RUNES    = 38
	MAX_CATEGORY_RUNES = 18

	ContentType = "application/pdf"
)

var (
	headerColor = [3]int{79, 70, 229}
	stripeColor = [3]int{245, 247, 255}
)

// column widths in mm, A4 portrait minus margins
var columns = []struct {
	title string
	width float64
	align string
}{
	{"Date", 32, "L"},
	{"Title", 78, "L"},
	{"Category", 40, "L"},
	{"Amount", 40, "R"},
}

// Report is a month (or "" for all time) and the rows already filtered and sorted
// the way the caller wants them printed.
type Report struct {
	Month       string
	Expenses    []expense.Expense
	GeneratedAt time.Time
}

// Filename returns Expense_Report_<month>.pdf, or Expense_Report_All.pdf without a month.
func Filename(month string) string {
	if month == "" {
		month = "All"
	}
	return fmt.Sprintf("Expense_Report_%s.pdf", month)
}

func Render(w io.Writer, rep Report) error {
	pdf := newDocument(rep)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

func newDocument(rep Report) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Expense Report", true)
	pdf.SetCreator("expense_manager", true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AliasNbPages("")

	// Core fonts are cp1252, so titles are transliterated and amounts carry "INR"
	// instead of the rupee sign.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(headerColor[0], headerColor[1], headerColor[2])
	pdf.CellFormat(0, 12, "Expense Report", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(0, 7, "Period: "+expense.MonthLabel(rep.Month), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, "Total Spending: INR "+expense.FormatAmount(expense.Total(rep.Expenses)), "", 1, "L", false, 0, "")
	if !rep.GeneratedAt.IsZero() {
		pdf.CellFormat(0, 7, "Generated: "+rep.GeneratedAt.Format("2 Jan 2006 15:04"), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	tableHeader(pdf)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(30, 30, 30)
	pdf.SetFillColor(stripeColor[0], stripeColor[1], stripeColor[2])

	if len(rep.Expenses) == 0 {
		pdf.CellFormat(0, 8, "No expenses for this period.", "", 1, "C", false, 0, "")
		return pdf
	}

	for i, e := range rep.Expenses {
		fill := i%2 == 1
		cells := []string{
			expense.FormatDate(e.Date),
			tr(truncate(e.Title, MAX_TITLE_RUNES)),
			tr(truncate(e.Category, MAX_CATEGORY_RUNES)),
			expense.FormatAmount(e.Price),
		}
		for j, col := range columns {
			pdf.CellFormat(col.width, 8, cells[j], "", 0, col.align, fill, 0, "")
		}
		pdf.Ln(-1)
	}
	return pdf
}

func tableHeader(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(headerColor[0], headerColor[1], headerColor[2])
	pdf.SetTextColor(255, 255, 255)
	for _, col := range columns {
		pdf.CellFormat(col.width, 9, col.title, "", 0, col.align, true, 0, "")
	}
	pdf.Ln(-1)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
