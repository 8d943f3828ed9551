// Package cli implementa la herramienta de operador que audita la cadena de una empresa
// y escribe el reporte en JSON, XML canónico o PDF.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/jhoicas/Inalterable-api/internal/application/integrity"
	"github.com/jhoicas/Inalterable-api/internal/domain/chain"
)

// Formatos de salida.
const (
	FormatJSON = "json"
	FormatXML  = "xml"
	FormatPDF  = "pdf"
)

// Códigos de salida del proceso.
const (
	ExitOK        = 0
	ExitError     = 1
	ExitCorrupted = 2
)

// Options parámetros de una auditoría.
type Options struct {
	CompanyID string
	DateField string
	Format    string
	Out       string // vacío = stdout
	DryRun    bool
}

// ErrHelp se devuelve cuando se pidió --help.
var ErrHelp = pflag.ErrHelp

// ParseFlags lee los argumentos de la línea de comandos. defaultDateField viene de la configuración.
func ParseFlags(args []string, defaultDateField string, usageOut io.Writer) (Options, error) {
	var opts Options
	fs := pflag.NewFlagSet("chainaudit", pflag.ContinueOnError)
	fs.SetOutput(usageOut)
	fs.StringVarP(&opts.CompanyID, "company", "c", "", "UUID de la empresa a auditar (obligatorio)")
	fs.StringVar(&opts.DateField, "date-field", defaultDateField, "campo de fecha que se muestra en el reporte")
	fs.StringVarP(&opts.Format, "format", "f", FormatJSON, "formato de salida: json, xml o pdf")
	fs.StringVarP(&opts.Out, "out", "o", "", "archivo de salida (por defecto stdout)")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "no recorre la cadena; reporta NOT_CHECKED")
	if err := fs.Parse(args); err != nil {
		return Options{}, err
	}

	opts.Format = strings.ToLower(strings.TrimSpace(opts.Format))
	switch {
	case opts.CompanyID == "":
		return Options{}, errors.New("--company es obligatorio")
	case !isUUID(opts.CompanyID):
		return Options{}, errors.Newf("--company %q no es un UUID", opts.CompanyID)
	case opts.Format != FormatJSON && opts.Format != FormatXML && opts.Format != FormatPDF:
		return Options{}, errors.Newf("--format %q no soportado (json, xml, pdf)", opts.Format)
	}
	return opts, nil
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// Auditor ejecuta la verificación y serializa el reporte.
type Auditor struct {
	verifier *integrity.VerifyUseCase
	exporter *integrity.ExportUseCase
}

// NewAuditor construye el auditor.
func NewAuditor(verifier *integrity.VerifyUseCase, exporter *integrity.ExportUseCase) *Auditor {
	return &Auditor{verifier: verifier, exporter: exporter}
}

// Result resumen de una auditoría para el log del operador.
type Result struct {
	Status chain.Status
	Digest string // solo XML
}

// Run verifica la cadena y escribe el reporte en w según opts.Format.
func (a *Auditor) Run(ctx context.Context, opts Options, w io.Writer) (Result, error) {
	switch opts.Format {
	case FormatXML, FormatPDF:
		export := a.exporter.ExportXML
		if opts.Format == FormatPDF {
			export = a.exporter.ExportPDF
		}
		exported, err := export(ctx, opts.CompanyID, opts.DateField, opts.DryRun)
		if err != nil {
			return Result{}, err
		}
		if _, err := w.Write(exported.Document); err != nil {
			return Result{}, errors.Wrapf(err, "escribir %s", opts.Format)
		}
		return Result{Status: exported.Report.Status, Digest: exported.Digest}, nil

	default:
		report, err := a.verifier.Verify(ctx, opts.CompanyID, opts.DateField, opts.DryRun)
		if err != nil {
			return Result{}, err
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(integrity.ReportToResponse(report)); err != nil {
			return Result{}, errors.Wrap(err, "escribir JSON")
		}
		return Result{Status: report.Status}, nil
	}
}

// ExitCode traduce el estado del reporte al código de salida: 2 si la cadena está corrupta.
func ExitCode(status chain.Status) int {
	if status == chain.StatusCorrupted {
		return ExitCorrupted
	}
	return ExitOK
}

// Describe arma la línea de resumen que se imprime en stderr.
func Describe(opts Options, res Result) string {
	msg := fmt.Sprintf("empresa %s: %s", opts.CompanyID, res.Status)
	if res.Digest != "" {
		msg += " sha256=" + res.Digest
	}
	return msg
}
