// Package pdf implementa el certificado de integridad de la cadena de asientos.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Razón Social + NIT  │  Estado + Fecha de chequeo   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: registros recorridos / versiones de hash           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  DETALLE: primer y último registro (VERIFIED)                │
//	│           o primer registro corrupto (CORRUPTED)             │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR con el último hash + leyenda                     │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"sort"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/Inalterable-api/internal/application/integrity"
	"github.com/jhoicas/Inalterable-api/internal/domain/chain"
	"github.com/jhoicas/Inalterable-api/internal/domain/entity"
)

var _ integrity.ReportPDFGenerator = (*MarotoPDFGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorOK      = &props.Color{Red: 0, Green: 120, Blue: 60}
	colorAlert   = &props.Color{Red: 180, Green: 20, Blue: 20}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa integrity.ReportPDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateIntegrityPDF genera el certificado y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateIntegrityPDF(
	_ context.Context,
	report chain.Report,
	company *entity.Company,
) ([]byte, error) {
	if company == nil {
		return nil, fmt.Errorf("pdf: empresa requerida")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Certificado de integridad contable", true).
		WithAuthor(company.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(report, company))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(summaryRow(report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	switch report.Status {
	case chain.StatusVerified:
		m.AddRows(recordRows("PRIMER REGISTRO", report.FirstName, report.FirstDate, report.FirstHash)...)
		m.AddRows(recordRows("ÚLTIMO REGISTRO", report.LastName, report.LastDate, report.LastHash)...)
	case chain.StatusCorrupted:
		m.AddRows(corruptedRows(report)...)
	default:
		m.AddRows(noticeRow(statusNotice(report.Status)))
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRows(report)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: Razón social + NIT (izq) y estado + fecha (der).
func headerRow(report chain.Report, company *entity.Company) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(company.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("NIT: "+company.NIT, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("CERTIFICADO DE INTEGRIDAD", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(string(report.Status), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
				Color: statusColor(report.Status),
			}),
			text.New("Verificado: "+report.CheckedAt.UTC().Format("02/01/2006 15:04:05 UTC"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// summaryRow: cantidad de registros y versiones de hash encontradas.
func summaryRow(report chain.Report) core.Row {
	return row.New(12).Add(
		col.New(12).Add(
			text.New("RESUMEN", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Registros recorridos: %d   |   Versiones: %s",
				report.RecordCount, nonEmpty(formatVersions(report.Versions), "—"),
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

// recordRows: nombre, fecha y hash (partido) de un extremo de la cadena.
func recordRows(title, name, date, hash string) []core.Row {
	rows := []core.Row{
		row.New(12).Add(col.New(12).Add(
			text.New(title, props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("%s   |   Fecha: %s", name, nonEmpty(date, "—")), props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
		)),
	}
	for _, chunk := range splitEvery(hash, 80) {
		rows = append(rows, row.New(4).Add(col.New(12).Add(
			text.New(chunk, props.Text{Size: 7, Color: colorGray, Top: 0.5, Left: 2}),
		)))
	}
	return rows
}

// corruptedRows: primer registro cuya verificación falló.
func corruptedRows(report chain.Report) []core.Row {
	return []core.Row{
		row.New(20).Add(col.New(12).Add(
			text.New("PRIMER REGISTRO CORRUPTO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorAlert, Top: 1,
			}),
			text.New(report.FirstBadName, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("ID: %d   |   Secuencia: %d", report.FirstBadID, report.FirstBadSeq), props.Text{
				Size: 8, Top: 13, Color: colorGray,
			}),
		)),
	}
}

func noticeRow(msg string) core.Row {
	return row.New(10).Add(col.New(12).Add(
		text.New(msg, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Center, Color: colorPrimary, Top: 2,
		}),
	))
}

// footerRows: QR con el último hash (solo VERIFIED) + leyenda.
func footerRows(report chain.Report) []core.Row {
	var rows []core.Row
	if report.Status == chain.StatusVerified && report.LastHash != "" {
		rows = append(rows, row.New(40).Add(
			col.New(3).Add(code.NewQr(report.LastHash, props.Rect{
				Percent: 95,
				Center:  true,
			})),
			col.New(9).Add(
				text.New("El código QR contiene el hash del último registro sellado.\n"+
					"Cualquier alteración posterior de la cadena cambia este valor.", props.Text{
					Size: 8, Top: 6, Left: 3, Color: colorGray,
				}),
			),
		))
	}
	rows = append(rows, row.New(8).Add(col.New(12).Add(
		text.New(
			"Cada asiento publicado se sella con el SHA-256 de su contenido canónico "+
				"encadenado al hash del asiento anterior de la misma empresa.",
			props.Text{Size: 6.5, Color: colorGray, Top: 2},
		),
	)))
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func statusColor(s chain.Status) *props.Color {
	switch s {
	case chain.StatusVerified:
		return colorOK
	case chain.StatusCorrupted:
		return colorAlert
	}
	return colorGray
}

func statusNotice(s chain.Status) string {
	if s == chain.StatusNoRecord {
		return "La empresa no tiene registros sellados."
	}
	return "La verificación no se ejecutó (modo de prueba)."
}

// formatVersions: "v1=3, v2=5" ordenado por versión.
func formatVersions(versions map[int]int) string {
	keys := make([]int, 0, len(versions))
	for v := range versions {
		keys = append(keys, v)
	}
	sort.Ints(keys)
	parts := make([]string, 0, len(keys))
	for _, v := range keys {
		parts = append(parts, fmt.Sprintf("v%d=%d", v, versions[v]))
	}
	return strings.Join(parts, ", ")
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// splitEvery divide s en trozos de max n caracteres.
func splitEvery(s string, n int) []string {
	var parts []string
	for len(s) > n {
		parts = append(parts, s[:n])
		s = s[n:]
	}
	if s != "" {
		parts = append(parts, s)
	}
	return parts
}
