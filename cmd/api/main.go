package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/Inalterable-api/internal/application/accounting"
	"github.com/jhoicas/Inalterable-api/internal/application/auth"
	"github.com/jhoicas/Inalterable-api/internal/application/dto"
	"github.com/jhoicas/Inalterable-api/internal/application/integrity"
	"github.com/jhoicas/Inalterable-api/internal/application/usecase"
	"github.com/jhoicas/Inalterable-api/internal/domain/entity"
	infraarchive "github.com/jhoicas/Inalterable-api/internal/infrastructure/archive"
	infrapdf "github.com/jhoicas/Inalterable-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Inalterable-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Inalterable-api/internal/interfaces/http"
	"github.com/jhoicas/Inalterable-api/pkg/config"
	"github.com/jhoicas/Inalterable-api/pkg/logger"
	"github.com/jhoicas/Inalterable-api/pkg/nit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Dur("lock_timeout", cfg.Chain.LockTimeout).
		Msg("iniciando aplicación")

	if cfg.Chain.RunMigrations {
		if err := postgres.Migrate(cfg.DB.ConnectionString(), log.Named("migrate")); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	// El registro de clases se arma una sola vez y queda cerrado antes de atender peticiones.
	registry, err := entity.NewAccountingRegistry()
	if err != nil {
		log.Fatal().Err(err).Msg("registro de clases de la cadena")
	}

	companyRepo := postgres.NewCompanyRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	entryRepo := postgres.NewJournalEntryRepository(pool)
	txRunner := postgres.NewTxRunner(pool, cfg.Chain.LockTimeout)

	binder := integrity.NewBinder(registry, txRunner, log)
	verifyUC := integrity.NewVerifyUseCase(registry, txRunner, log)
	exportUC := integrity.NewExportUseCase(verifyUC, companyRepo, infrapdf.NewMarotoPDFGenerator(), infraarchive.NewXMLArchiver())
	companyUC := usecase.NewCompanyUseCase(companyRepo, txRunner)
	entryUC := accounting.NewEntryUseCase(txRunner, entryRepo, companyRepo, binder, log)
	authUC := auth.NewAuthUseCase(userRepo, companyRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	if cfg.Boot.Enabled() {
		if err := bootstrap(ctx, cfg.Boot, companyUC, companyRepo, authUC, log); err != nil {
			log.Fatal().Err(err).Msg("bootstrap del admin inicial")
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:      authUC,
		CompanyUC:   companyUC,
		EntryUC:     entryUC,
		VerifyUC:    verifyUC,
		ExportUC:    exportUC,
		Binder:      binder,
		CompanyRepo: companyRepo,
		JWTSecret:   cfg.JWT.Secret,
		DateField:   cfg.Chain.DateField,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// bootstrap asegura la empresa y el admin iniciales. Es idempotente entre reinicios.
func bootstrap(ctx context.Context, boot config.BootstrapConfig, companyUC *usecase.CompanyUseCase,
	companyRepo *postgres.CompanyRepo, authUC *auth.AuthUseCase, log *logger.Logger,
) error {
	taxID, err := nit.Normalize(boot.CompanyNIT)
	if err != nil {
		return err
	}
	company, err := companyRepo.GetByNIT(ctx, taxID)
	if err != nil {
		return err
	}
	var companyID string
	if company != nil {
		companyID = company.ID
	} else {
		created, err := companyUC.Create(ctx, dto.CreateCompanyRequest{Name: boot.CompanyName, NIT: taxID})
		if err != nil {
			return err
		}
		companyID = created.ID
	}
	createdAdmin, err := authUC.EnsureAdmin(ctx, companyID, boot.AdminEmail, boot.AdminPassword)
	if err != nil {
		return err
	}
	log.Info().Str("company_id", companyID).Bool("admin_creado", createdAdmin).Msg("bootstrap listo")
	return nil
}
