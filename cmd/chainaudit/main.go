// Command chainaudit verifica la cadena inalterable de una empresa y escribe el reporte.
//
// Uso:
//
//	chainaudit --company <uuid> [--date-field date] [--format json|xml|pdf] [--out archivo] [--dry-run]
//
// Sale con código 2 si la cadena está CORRUPTED y 1 ante cualquier error.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Inalterable-api/internal/application/integrity"
	"github.com/jhoicas/Inalterable-api/internal/domain/entity"
	infraarchive "github.com/jhoicas/Inalterable-api/internal/infrastructure/archive"
	infrapdf "github.com/jhoicas/Inalterable-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Inalterable-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Inalterable-api/internal/interfaces/cli"
	"github.com/jhoicas/Inalterable-api/pkg/config"
	"github.com/jhoicas/Inalterable-api/pkg/logger"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// El reporte puede ir a stdout: los logs van siempre a stderr.
	log := logger.FromZerolog(zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger())

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("cargar configuración")
		return cli.ExitError
	}

	opts, err := cli.ParseFlags(args, cfg.Chain.DateField, os.Stderr)
	if err != nil {
		if errors.Is(err, cli.ErrHelp) {
			return cli.ExitOK
		}
		log.Error().Err(err).Msg("argumentos inválidos")
		return cli.ExitError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("conexión a PostgreSQL")
		return cli.ExitError
	}
	defer pool.Close()

	registry, err := entity.NewAccountingRegistry()
	if err != nil {
		log.Error().Err(err).Msg("registro de clases de la cadena")
		return cli.ExitError
	}

	txRunner := postgres.NewTxRunner(pool, cfg.Chain.LockTimeout)
	verifier := integrity.NewVerifyUseCase(registry, txRunner, log)
	exporter := integrity.NewExportUseCase(verifier, postgres.NewCompanyRepository(pool),
		infrapdf.NewMarotoPDFGenerator(), infraarchive.NewXMLArchiver())

	var out io.Writer = os.Stdout
	if opts.Out != "" {
		f, err := os.Create(opts.Out)
		if err != nil {
			log.Error().Err(err).Str("out", opts.Out).Msg("crear archivo de salida")
			return cli.ExitError
		}
		defer f.Close()
		out = f
	}

	res, err := cli.NewAuditor(verifier, exporter).Run(ctx, opts, out)
	if err != nil {
		log.Error().Err(err).Str("company_id", opts.CompanyID).Msg("auditoría fallida")
		return cli.ExitError
	}

	code := cli.ExitCode(res.Status)
	event := log.Info()
	if code == cli.ExitCorrupted {
		event = log.Error()
	}
	event.Str("format", opts.Format).Msg(cli.Describe(opts, res))
	return code
}
