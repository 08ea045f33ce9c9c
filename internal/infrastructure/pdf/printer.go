// Package pdf renders closed invoices as A4 documents.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	dominvoice "github.com/Zhima-Mochi/notafiscal-console/internal/domain/invoice"
	"github.com/jung-kurt/gofpdf"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Printer writes one PDF per invoice into Dir.
type Printer struct {
	Dir string
	now func() time.Time
}

func NewPrinter(dir string) *Printer {
	return &Printer{Dir: dir, now: time.Now}
}

// Print renders inv to <Dir>/invoice-<code>.pdf and returns the path.
func (p *Printer) Print(ctx context.Context, inv dominvoice.Invoice) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return "", fmt.Errorf("pdf: prepare dir: %w", err)
	}

	var buf bytes.Buffer
	if err := p.Render(&buf, inv); err != nil {
		return "", err
	}

	path := filepath.Join(p.Dir, FileName(inv.Code))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("pdf: write %s: %w", path, err)
	}
	return path, nil
}

// Render writes the invoice document to w.
func (p *Printer) Render(w io.Writer, inv dominvoice.Invoice) error {
	now := time.Now
	if p.now != nil {
		now = p.now
	}

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetTitle("Invoice "+inv.Code, true)
	doc.AddPage()

	doc.SetFont("Arial", "B", 16)
	doc.CellFormat(0, 10, "Invoice "+inv.Code, "", 1, "L", false, 0, "")

	doc.SetFont("Arial", "", 10)
	doc.CellFormat(0, 6, "Status: "+string(inv.Status), "", 1, "L", false, 0, "")
	if inv.CreatedAt != "" {
		doc.CellFormat(0, 6, "Issued: "+inv.CreatedAt, "", 1, "L", false, 0, "")
	}
	doc.CellFormat(0, 6, "Printed: "+now().UTC().Format(time.RFC3339), "", 1, "L", false, 0, "")
	doc.Ln(4)

	widths := []float64{70, 30, 35, 45}
	doc.SetFont("Arial", "B", 10)
	doc.SetFillColor(230, 230, 230)
	for i, h := range []string{"Product", "Amount", "Price", "Subtotal"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		doc.CellFormat(widths[i], 7, h, "1", 0, align, true, 0, "")
	}
	doc.Ln(-1)

	doc.SetFont("Arial", "", 10)
	for _, l := range inv.Products {
		name := l.Name
		if name == "" {
			name = l.ProductID
		}
		doc.CellFormat(widths[0], 7, name, "1", 0, "L", false, 0, "")
		doc.CellFormat(widths[1], 7, strconv.Itoa(l.Amount), "1", 0, "R", false, 0, "")
		doc.CellFormat(widths[2], 7, l.Price.StringFixed(2), "1", 0, "R", false, 0, "")
		doc.CellFormat(widths[3], 7, l.Subtotal().StringFixed(2), "1", 0, "R", false, 0, "")
		doc.Ln(-1)
	}

	doc.SetFont("Arial", "B", 11)
	doc.CellFormat(widths[0]+widths[1]+widths[2], 8, "Total", "1", 0, "R", false, 0, "")
	doc.CellFormat(widths[3], 8, inv.TotalValue.StringFixed(2), "1", 1, "R", false, 0, "")

	if err := doc.Output(w); err != nil {
		return fmt.Errorf("pdf: render invoice %s: %w", inv.Code, err)
	}
	return nil
}

// FileName is the file an invoice code is printed to.
func FileName(code string) string {
	safe := unsafeName.ReplaceAllString(code, "_")
	if safe == "" {
		safe = "unnamed"
	}
	return "invoice-" + safe + ".pdf"
}
