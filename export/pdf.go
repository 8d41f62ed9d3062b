// ABOUTME: PDF rendering of a visit's generated summary
// ABOUTME: Header block with customer details followed by the summary with markdown stripped
package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/harperreed/onsite/models"
)

// ErrNoSummary is returned when a visit has nothing to export yet.
var ErrNoSummary = errors.New("no summary generated yet")

const (
	pdfMIME   = "application/pdf"
	margin    = 20.0
	bodyLineH = 5.0
)

// MIMEType is the content type of rendered documents.
func MIMEType() string { return pdfMIME }

// FileName builds onsite-recap-<customer|visit>-<date>.pdf.
func FileName(v *models.Visit, now time.Time) string {
	name := strings.TrimSpace(v.CustomerName)
	if name == "" {
		name = "visit"
	}
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		return r
	}, name)
	return fmt.Sprintf("onsite-recap-%s-%s.pdf", name, now.Format("2006-01-02"))
}

// Render writes the visit summary as a PDF.
func Render(v *models.Visit, w io.Writer) error {
	if strings.TrimSpace(v.GeneratedSummary) == "" {
		return ErrNoSummary
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetTitle("Onsite Visit Summary", true)
	pdf.SetAuthor("onsite", false)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 24)
	pdf.Cell(0, 12, "Onsite Visit Summary")
	pdf.Ln(16)

	pdf.SetFont("Helvetica", "", 12)
	for _, line := range []string{
		"Customer: " + v.CustomerName,
		"Account ID: " + v.AccountID,
		"ARR: " + v.ARR,
		"Date: " + v.CreatedAt.Local().Format("Jan 2, 2006"),
	} {
		pdf.Cell(0, 8, tr(line))
		pdf.Ln(8)
	}

	pageW, _ := pdf.GetPageSize()
	pdf.SetDrawColor(200, 200, 200)
	y := pdf.GetY() + 2
	pdf.Line(margin, y, pageW-margin, y)
	pdf.SetY(y + 6)

	writeBody(pdf, tr, v.GeneratedSummary)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// Bytes renders the PDF into memory for upload.
func Bytes(v *models.Visit) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(v, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile renders the PDF to path, creating parent directories.
func WriteFile(v *models.Visit, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure pdf directory: %w", err)
	}

	data, err := Bytes(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func writeBody(pdf *gofpdf.Fpdf, tr func(string) string, markdown string) {
	for _, raw := range strings.Split(markdown, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			pdf.Ln(bodyLineH / 2)
			continue
		}
		if isRule(line) {
			continue
		}

		if level := headingLevel(line); level > 0 {
			size := 14.0
			if level > 2 {
				size = 12
			}
			pdf.Ln(2)
			pdf.SetFont("Helvetica", "B", size)
			pdf.MultiCell(0, bodyLineH+1, tr(cleanLine(line)), "", "L", false)
			continue
		}

		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, bodyLineH, tr(cleanLine(line)), "", "L", false)
	}
}
