package export

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	brandName  = "Deal Desk"
	lineHeight = 6.0
)

// RenderPDF lays the sections out as tables, one after another.
func RenderPDF(w io.Writer, ds *Dataset, req *Request, now time.Time) error {
	orientation := "P"
	if req.Options.Orientation == "landscape" {
		orientation = "L"
	}
	pdf := fpdf.New(orientation, "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(ds.Deal.Name+" export", true)
	pdf.SetAutoPageBreak(true, 15)

	if req.Options.IncludeBranding {
		pdf.SetHeaderFunc(func() {
			pdf.SetFont("Helvetica", "B", 9)
			pdf.SetTextColor(90, 90, 90)
			pdf.CellFormat(0, 5, brandName+"  |  exported "+now.Format("2006-01-02"), "", 1, "L", false, 0, "")
			pdf.Ln(2)
			pdf.SetTextColor(0, 0, 0)
		})
	}
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(ds.Deal.Name), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	usable := pageW - left - right

	for _, t := range buildTables(ds, req) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, tr(t.Title), "", 1, "L", false, 0, "")

		if t.Title == "Notes" {
			writeNotes(pdf, tr, t)
			continue
		}

		colW := usable / float64(len(t.Header))
		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetFillColor(230, 230, 230)
		for _, h := range t.Header {
			pdf.CellFormat(colW, lineHeight, tr(h), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Helvetica", "", 8)
		if len(t.Rows) == 0 {
			pdf.CellFormat(usable, lineHeight, "No data", "1", 1, "L", false, 0, "")
		}
		for _, row := range t.Rows {
			for _, cell := range row {
				pdf.CellFormat(colW, lineHeight, tr(clip(pdf, cell, colW)), "1", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
		pdf.Ln(4)
	}
	return pdf.Output(w)
}

func writeNotes(pdf *fpdf.Fpdf, tr func(string) string, t table) {
	if len(t.Rows) == 0 {
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, lineHeight, "No notes", "", 1, "L", false, 0, "")
		return
	}
	for _, row := range t.Rows {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(0, lineHeight, tr(fmt.Sprintf("%s  %s  %s", row[0], row[1], row[2])), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(0, 5, tr(row[3]), "", "L", false)
		pdf.Ln(2)
	}
}

// clip shortens text to fit a cell of width w.
func clip(pdf *fpdf.Fpdf, s string, w float64) string {
	if pdf.GetStringWidth(s) <= w-2 {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > w-2 {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
