/*
pdf.go - Printable payslip (two copies on one A4 sheet)

LAYOUT (each copy):
  +--------------------------------------------------------------+
  | left header (3 lines)                 right header (3 lines) |
  | Código | Nome do funcionário              | CBO | Admissão   |
  |        | role                                                |
  | Código | Descrição | Referência | Vencimentos | Descontos    |
  | ... one row per line item, earnings first ...                |
  |                      Total de vencimentos | Total de descontos|
  |                                Valor líquido | net           |
  | Salário Base | Sal. Contr. INSS | Base FGTS | FGTS | Base IRRF | Faixa |
  | receipt declaration, date and signature                      |
  +--------------------------------------------------------------+

  The employer keeps one copy and the employee signs and returns the other.
  When the items do not fit two copies on one sheet, the second copy goes on
  its own page.

REQUIRES:
  Employee name and code. Without them rendering fails with
  generic.ErrMissingRequiredContext.

FONTS:
  Core Helvetica with the cp1252 translator so accented labels print.
*/
package render

import (
	"bytes"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payslip"
)

// DefaultReceiptTitle is the first line of the default right header.
const DefaultReceiptTitle = "RECIBO DE PAGAMENTO DE SALÁRIO"

// Options are the presentation settings of a payslip.
type Options struct {
	// LeftHeader identifies the employer: name, tax ID, address.
	LeftHeader [3]string

	// RightHeader defaults to (DefaultReceiptTitle, competency label, "")
	// when left empty.
	RightHeader [3]string
}

// rightHeader returns the configured right header or the default.
func (o Options) rightHeader(p generic.CompetencyPeriod) [3]string {
	if o.RightHeader != ([3]string{}) {
		return o.RightHeader
	}
	return [3]string{DefaultReceiptTitle, CompetencyLabel(p), ""}
}

// PDFRenderer writes payslips as PDF documents. Stateless; safe for
// concurrent use.
type PDFRenderer struct {
	opts Options
}

// NewPDFRenderer creates a renderer with the given options.
func NewPDFRenderer(opts Options) *PDFRenderer {
	return &PDFRenderer{opts: opts}
}

// =============================================================================
// PAGE GEOMETRY (mm)
// =============================================================================

const (
	pageHeight  = 297.0
	margin      = 10.0
	usableWidth = 190.0
	lineHeight  = 4.5
	copyGap     = 8.0

	colCode      = 20.0
	colDesc      = 75.0
	colReference = 25.0
	colAmount    = 35.0 // earnings and deductions columns
)

// copyHeight is the height of one copy with n item rows.
func copyHeight(n int) float64 {
	const fixedRows = 3 + 3 + 1 + 2 + 1 + 2 + 3 // header, employee, item titles, totals, net, taxes, signature
	return float64(fixedRows+n)*lineHeight + 12
}

// =============================================================================
// RENDERING
// =============================================================================

// Render writes the payslip for s to w.
func (r *PDFRenderer) Render(w io.Writer, s *payslip.Summary) error {
	if s == nil {
		return &generic.MissingContextError{What: "computed payslip"}
	}
	if s.Employee.Name == "" || s.Employee.Code == "" {
		return &generic.MissingContextError{What: "employee name and code"}
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle("Contracheque "+s.Period.Label(), true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	page := &page{pdf: pdf, tr: tr}
	items := s.DisplayItems()
	height := copyHeight(len(items))

	pdf.AddPage()
	y := margin
	for c := 0; c < 2; c++ {
		if c > 0 {
			y += height + copyGap
			if y+height > pageHeight-margin {
				pdf.AddPage()
				y = margin
			} else {
				page.cutLine(y - copyGap/2)
			}
		}
		page.payslip(y, height, r.opts.rightHeader(s.Period), r.opts.LeftHeader, s, items)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write payslip PDF: %w", err)
	}
	return nil
}

// RenderBytes returns the PDF for s.
func (r *PDFRenderer) RenderBytes(s *payslip.Summary) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// page draws onto a gofpdf document with translated text.
type page struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func (p *page) cell(w float64, text, align string, border string) {
	p.pdf.CellFormat(w, lineHeight, p.tr(text), border, 0, align, false, 0, "")
}

func (p *page) font(style string, size float64) {
	p.pdf.SetFont("Helvetica", style, size)
}

func (p *page) cutLine(y float64) {
	p.pdf.SetDashPattern([]float64{1, 1}, 0)
	p.pdf.Line(margin, y, margin+usableWidth, y)
	p.pdf.SetDashPattern([]float64{}, 0)
}

func (p *page) payslip(y, height float64, right, left [3]string, s *payslip.Summary, items []payslip.LineItem) {
	pdf := p.pdf
	pdf.Rect(margin, y, usableWidth, height, "D")
	pdf.SetXY(margin, y+2)

	// Header
	for i := 0; i < 3; i++ {
		p.font("B", 9)
		p.cell(usableWidth/2, left[i], "L", "")
		p.cell(usableWidth/2, right[i], "R", "")
		pdf.Ln(lineHeight)
	}

	// Employee
	e := s.Employee
	p.font("", 7)
	p.cell(colCode, "Código", "L", "T")
	p.cell(colDesc+colReference+colAmount, "Nome do funcionário", "L", "T")
	p.cell(colAmount/2, "CBO", "L", "T")
	p.cell(colAmount/2, "Admissão:", "L", "T")
	pdf.Ln(lineHeight)
	p.font("", 9)
	p.cell(colCode, e.Code, "L", "")
	p.cell(colDesc+colReference+colAmount, e.Name, "L", "")
	p.cell(colAmount/2, e.Occupation, "L", "")
	p.cell(colAmount/2, e.Admission, "L", "")
	pdf.Ln(lineHeight)
	p.cell(colCode, "", "L", "")
	p.cell(usableWidth-colCode, e.Role, "L", "")
	pdf.Ln(lineHeight)

	// Item titles
	p.font("B", 8)
	p.cell(colCode, "Código", "L", "TB")
	p.cell(colDesc, "Descrição", "L", "TB")
	p.cell(colReference, "Referência", "R", "TB")
	p.cell(colAmount, "Vencimentos", "R", "TB")
	p.cell(colAmount, "Descontos", "R", "TB")
	pdf.Ln(lineHeight)

	// Items
	p.font("", 9)
	for _, item := range items {
		line := item.Details()
		earning, deduction := "", ""
		if item.Kind() == payslip.KindEarning {
			earning = Decimal(line.Amount)
		} else {
			deduction = Decimal(line.Amount)
		}
		p.cell(colCode, line.Code, "L", "")
		p.cell(colDesc, line.Description, "L", "")
		p.cell(colReference, Reference(line.Reference), "R", "")
		p.cell(colAmount, earning, "R", "")
		p.cell(colAmount, deduction, "R", "")
		pdf.Ln(lineHeight)
	}

	// Totals
	spacer := colCode + colDesc + colReference
	p.font("", 7)
	p.cell(spacer, "", "L", "T")
	p.cell(colAmount, "Total de vencimentos", "R", "T")
	p.cell(colAmount, "Total de descontos", "R", "T")
	pdf.Ln(lineHeight)
	p.font("", 9)
	p.cell(spacer, "", "L", "")
	p.cell(colAmount, Decimal(s.TotalEarnings), "R", "")
	p.cell(colAmount, Decimal(s.TotalDeductions), "R", "")
	pdf.Ln(lineHeight)
	p.font("B", 9)
	p.cell(spacer, "", "L", "")
	p.cell(colAmount, "Valor líquido", "R", "")
	p.cell(colAmount, Decimal(s.NetAmount), "R", "")
	pdf.Ln(lineHeight)

	// Taxes
	taxCol := usableWidth / 6
	p.font("", 7)
	for _, label := range []string{"Salário Base", "Sal. Contr. INSS", "Base Cálc. FGTS", "FGTS do mês", "Base Cálc. IRRF", "Faixa IRRF"} {
		p.cell(taxCol, label, "C", "T")
	}
	pdf.Ln(lineHeight)
	p.font("", 9)
	for _, value := range []string{
		Decimal(s.BaseSalary),
		Decimal(s.SocialSecurity.Base()),
		Decimal(s.Fund.Base()),
		Decimal(s.Fund.Amount()),
		Decimal(s.Withholding.Base()),
		Percent(s.Withholding.Rate()),
	} {
		p.cell(taxCol, value, "C", "")
	}
	pdf.Ln(lineHeight)

	// Signature
	p.font("", 7)
	p.cell(usableWidth, "DECLARO TER RECEBIDO A IMPORTÂNCIA LÍQUIDA DISCRIMINADA NESTE RECIBO", "L", "T")
	pdf.Ln(lineHeight + 2)
	p.cell(usableWidth/3, "___/___/_____", "C", "")
	p.cell(usableWidth*2/3, "_________________________________________", "C", "")
	pdf.Ln(lineHeight)
	p.cell(usableWidth/3, "Data", "C", "")
	p.cell(usableWidth*2/3, "Assinatura do funcionário", "C", "")
}
