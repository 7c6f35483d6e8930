package reports

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"

	dbtypes "github.com/mipastel/pedidos-backend/pkg/db/types"
	"github.com/mipastel/pedidos-backend/pkg/enums"
)

const (
	productionTitle = "MI PASTEL - REPORTE DE PRODUCCIÓN Y PEDIDOS"
	salesTitle      = "MI PASTEL - REPORTE DE VENTAS"
	author          = "Mi Pastel"
)

type rgb struct{ r, g, b int }

var (
	white      = rgb{255, 255, 255}
	whitesmoke = rgb{245, 245, 245}
	grey       = rgb{128, 128, 128}
	black      = rgb{0, 0, 0}
	totalGrey  = rgb{224, 224, 224}

	productionHeader = rgb{0xff, 0xd1, 0xe6}
	customHeader     = rgb{0xff, 0xe9, 0xc4}
	salesStockHeader = rgb{0xd4, 0xed, 0xda}
	salesStockTotal  = rgb{0xc3, 0xe6, 0xcb}
	salesCustomHead  = rgb{0xff, 0xf3, 0xcd}
	salesCustomTotal = rgb{0xff, 0xea, 0xa7}
)

type column struct {
	title string
	width float64
	align string
}

type tableStyle struct {
	header     rgb
	total      rgb
	stripes    [2]rgb
	fontSize   float64
	lineHeight float64
	pad        float64
}

// Header describes the period and branch a report covers.
type Header struct {
	From   dbtypes.Date
	To     dbtypes.Date
	Branch enums.Branch
}

// Renderer draws report data as PDF. Output depends only on its inputs and
// the clock, which pins the creation date and the footer stamp.
type Renderer struct {
	now      func() time.Time
	compress bool
}

// NewRenderer builds a renderer. Disable compression to keep page content
// readable, e.g. for inspection in tests.
func NewRenderer(clock func() time.Time, compress bool) *Renderer {
	if clock == nil {
		clock = time.Now
	}
	return &Renderer{now: clock, compress: compress}
}

type document struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	left   float64
	bottom float64
	height float64
}

func (r *Renderer) newDocument(orientation string, margin, vmargin float64, title string) *document {
	stamp := r.now()
	pdf := fpdf.New(orientation, "pt", "Letter", "")
	pdf.SetMargins(margin, vmargin, margin)
	pdf.SetAutoPageBreak(false, vmargin)
	pdf.SetCompression(r.compress)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(stamp)
	pdf.SetModificationDate(stamp)
	pdf.SetTitle(title, true)
	pdf.SetAuthor(author, true)
	pdf.SetCreator(author, true)
	pdf.AliasNbPages("")

	d := &document{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor(""), left: margin, bottom: vmargin}
	_, d.height = pdf.GetPageSize()

	generated := "Generado: " + stamp.Format("02-01-2006 15:04")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-vmargin + 5)
		pdf.SetFont("Helvetica", "", 7)
		pdf.SetTextColor(grey.r, grey.g, grey.b)
		pdf.CellFormat(0, 10, d.tr(generated), "", 0, "L", false, 0, "")
		pdf.SetX(d.left)
		pdf.CellFormat(0, 10, d.tr("Página "+strconv.Itoa(pdf.PageNo())+" de {nb}"), "", 0, "R", false, 0, "")
		pdf.SetTextColor(black.r, black.g, black.b)
	})
	pdf.AddPage()
	return d
}

func (d *document) text(size float64, style, s string) {
	d.pdf.SetFont("Helvetica", style, size)
	d.pdf.CellFormat(0, size+3, d.tr(s), "", 1, "L", false, 0, "")
}

func (d *document) heading(title string, h Header, titleSize, labelSize float64) {
	d.text(titleSize, "B", title)
	d.text(labelSize, "", "Fecha: "+FormatRange(h.From, h.To))
	if h.Branch != "" {
		d.text(labelSize, "", "Sucursal: "+string(h.Branch))
	}
	d.pdf.Ln(10)
}

func (d *document) space(h float64) {
	if d.pdf.GetY()+h > d.height-d.bottom {
		d.pdf.AddPage()
		return
	}
	d.pdf.Ln(h)
}

// table draws a header, the body rows with alternating fills and a bold total
// row. The header repeats on every page the table spans.
func (d *document) table(cols []column, rows [][]string, total []string, st tableStyle) {
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.title
	}
	d.row(cols, header, st.header, "B", 0.5, grey, st, nil, true)
	for i, cells := range rows {
		d.row(cols, cells, st.stripes[i%2], "", 0.5, grey, st, header, false)
	}
	if total != nil {
		d.row(cols, total, st.total, "B", 1, black, st, header, false)
	}
	d.pdf.SetLineWidth(0.5)
	d.pdf.SetDrawColor(black.r, black.g, black.b)
}

func (d *document) row(cols []column, cells []string, fill rgb, style string, lineWidth float64, border rgb, st tableStyle, header []string, isHeader bool) {
	pdf := d.pdf
	pdf.SetFont("Helvetica", style, st.fontSize)

	wrapped := make([][]string, len(cols))
	lines := 1
	for i, c := range cols {
		var text string
		if i < len(cells) {
			text = d.tr(cells[i])
		}
		for _, l := range pdf.SplitLines([]byte(text), c.width) {
			wrapped[i] = append(wrapped[i], string(l))
		}
		if len(wrapped[i]) > lines {
			lines = len(wrapped[i])
		}
	}
	h := float64(lines)*st.lineHeight + 2*st.pad

	if pdf.GetY()+h > d.height-d.bottom {
		pdf.AddPage()
		if !isHeader && header != nil {
			d.row(cols, header, st.header, "B", 0.5, grey, st, nil, true)
			pdf.SetFont("Helvetica", style, st.fontSize)
		}
	}

	pdf.SetLineWidth(lineWidth)
	pdf.SetDrawColor(border.r, border.g, border.b)
	pdf.SetFillColor(fill.r, fill.g, fill.b)
	x, y := d.left, pdf.GetY()
	for i, c := range cols {
		pdf.Rect(x, y, c.width, h, "FD")
		align := c.align
		if isHeader {
			align = "C"
		}
		for li, l := range wrapped[i] {
			pdf.SetXY(x, y+st.pad+float64(li)*st.lineHeight)
			pdf.CellFormat(c.width, st.lineHeight, l, "", 0, align, false, 0, "")
		}
		x += c.width
	}
	pdf.SetXY(d.left, y+h)
}

func (d *document) finish(w io.Writer) error {
	if err := d.pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

// Production renders the pivot and the custom order control table on a
// landscape page.
func (r *Renderer) Production(w io.Writer, h Header, p Production) error {
	d := r.newDocument("L", 20, 25, productionTitle)
	d.heading(productionTitle, h, 14, 9)

	d.text(11, "B", "Producción - Pasteles Normales")
	d.pdf.Ln(5)

	const available, noWidth, productWidth, totalWidth = 720.0, 25.0, 140.0, 40.0
	branchWidth := float64(int(available-noWidth-productWidth-totalWidth) / len(p.Branches))
	if branchWidth < 30 {
		branchWidth = 30
	}
	cols := []column{{"No.", noWidth, "C"}, {"Producto", productWidth, "L"}}
	for _, b := range p.Branches {
		cols = append(cols, column{b.Abbrev(), branchWidth, "C"})
	}
	cols = append(cols, column{"Total", totalWidth, "C"})

	rows := make([][]string, 0, len(p.Rows))
	for _, pr := range p.Rows {
		cells := []string{strconv.Itoa(pr.No), pr.Product}
		for _, v := range pr.Cells {
			cells = append(cells, cell(v))
		}
		rows = append(rows, append(cells, cell(pr.Total)))
	}
	total := []string{"", "TOTAL GENERAL"}
	for _, v := range p.Totals {
		total = append(total, strconv.Itoa(v))
	}
	total = append(total, strconv.Itoa(p.GrandTotal))

	pivot := tableStyle{
		header:     productionHeader,
		total:      totalGrey,
		stripes:    [2]rgb{whitesmoke, white},
		fontSize:   7,
		lineHeight: 9,
		pad:        3,
	}
	d.table(cols, rows, total, pivot)

	d.space(15)
	d.text(11, "B", "Control de Pedidos - Clientes")
	d.pdf.Ln(5)

	customCols := []column{
		{"ID", 30, "C"},
		{"Cant.", 35, "C"},
		{"Descripción", 130, "L"},
		{"Suc.", 40, "C"},
		{"Entrega", 55, "C"},
		{"Detalles", 170, "L"},
		{"Img", 30, "C"},
		{"Dedicatoria", 160, "L"},
		{"Color", 70, "L"},
	}
	customRows := make([][]string, 0, len(p.Custom))
	for _, c := range p.Custom {
		img := "NO"
		if c.HasPhoto {
			img = "SI"
		}
		customRows = append(customRows, []string{
			strconv.FormatInt(c.ID, 10),
			strconv.Itoa(c.Quantity),
			c.Description,
			c.Branch,
			c.Delivery,
			c.Details,
			img,
			c.Dedication,
			c.Color,
		})
	}
	customTotal := []string{"", strconv.Itoa(p.CustomQuantity), "TOTAL PEDIDOS", "", "", "", "", "", ""}
	customStyle := pivot
	customStyle.header = customHeader
	customStyle.stripes = [2]rgb{white, whitesmoke}
	d.table(customCols, customRows, customTotal, customStyle)

	return d.finish(w)
}

// Sales renders the stock and custom sales tables plus the resumen on a
// portrait page.
func (r *Renderer) Sales(w io.Writer, h Header, s Sales) error {
	d := r.newDocument("P", 30, 30, salesTitle)
	d.heading(salesTitle, h, 16, 10)

	style := tableStyle{
		header:     salesStockHeader,
		total:      salesStockTotal,
		stripes:    [2]rgb{white, whitesmoke},
		fontSize:   9,
		lineHeight: 11,
		pad:        4,
	}

	d.text(12, "B", "Ventas - Pasteles de Tienda")
	d.pdf.Ln(8)
	stockCols := []column{
		{"Sucursal", 80, "L"},
		{"Producto", 200, "L"},
		{"Cantidad", 60, "C"},
		{"Precio Unit.", 80, "R"},
		{"Subtotal", 90, "R"},
	}
	stockRows := make([][]string, 0, len(s.Stock))
	for _, line := range s.Stock {
		stockRows = append(stockRows, []string{
			string(line.Branch),
			line.Product,
			strconv.Itoa(line.Quantity),
			FormatMoney(line.UnitPrice),
			FormatMoney(line.Subtotal),
		})
	}
	d.table(stockCols, stockRows, []string{"", "SUB-TOTAL", "", "", FormatMoney(s.StockTotal)}, style)

	d.space(20)
	d.text(12, "B", "Ventas - Pedidos de Clientes")
	d.pdf.Ln(8)
	customCols := []column{
		{"ID", 40, "C"},
		{"Suc.", 80, "C"},
		{"Descripción", 180, "L"},
		{"Cant.", 45, "C"},
		{"Precio", 80, "R"},
		{"Total", 90, "R"},
	}
	customRows := make([][]string, 0, len(s.Custom))
	for _, line := range s.Custom {
		customRows = append(customRows, []string{
			strconv.FormatInt(line.ID, 10),
			line.Branch,
			line.Description,
			strconv.Itoa(line.Quantity),
			FormatMoney(line.UnitPrice),
			FormatMoney(line.Total),
		})
	}
	customStyle := style
	customStyle.header = salesCustomHead
	customStyle.total = salesCustomTotal
	d.table(customCols, customRows, []string{"", "", "TOTAL", "", "", FormatMoney(s.CustomTotal)}, customStyle)

	d.space(20)
	d.text(11, "B", "RESUMEN DE VENTAS")
	d.text(11, "", "Total Pasteles de Tienda: "+FormatMoney(s.StockTotal))
	d.text(11, "", "Total Pedidos de Clientes: "+FormatMoney(s.CustomTotal))
	d.pdf.Ln(4)
	d.text(13, "B", "TOTAL GENERAL: "+FormatMoney(s.GrandTotal))

	return d.finish(w)
}
