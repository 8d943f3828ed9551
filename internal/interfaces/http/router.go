package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inalterable-api/internal/application/accounting"
	"github.com/jhoicas/Inalterable-api/internal/application/auth"
	"github.com/jhoicas/Inalterable-api/internal/application/integrity"
	"github.com/jhoicas/Inalterable-api/internal/application/usecase"
	"github.com/jhoicas/Inalterable-api/internal/domain/repository"
	"github.com/jhoicas/Inalterable-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC      *auth.AuthUseCase
	CompanyUC   *usecase.CompanyUseCase
	EntryUC     *accounting.EntryUseCase
	VerifyUC    *integrity.VerifyUseCase
	ExportUC    *integrity.ExportUseCase
	Binder      *integrity.Binder
	CompanyRepo repository.CompanyRepository
	JWTSecret   string
	DateField   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", authHandler.Login)

	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Usuarios de la empresa del token
	users := protected.Group("/users", RequireRole(jwt.RoleAdmin))
	users.Get("/", authHandler.List)
	users.Post("/", authHandler.Register)

	// Companies
	companies := protected.Group("/companies")
	companyHandler := NewCompanyHandler(deps.CompanyUC)
	companies.Get("/", RequireRole(jwt.RoleAdmin), companyHandler.List)
	companies.Post("/", RequireRole(jwt.RoleAdmin), companyHandler.Create)
	companies.Get("/:id", companyHandler.GetByID)

	// Asientos (empresa del token, debe estar activa)
	entries := protected.Group("/entries", RequireActiveCompany(deps.CompanyRepo))
	entryHandler := NewEntryHandler(deps.EntryUC)
	readers := RequireRole(jwt.RoleAdmin, jwt.RoleAccount, jwt.RoleAuditor)
	writers := RequireRole(jwt.RoleAdmin, jwt.RoleAccount)
	entries.Get("/", readers, entryHandler.List)
	entries.Post("/", writers, entryHandler.Create)
	entries.Get("/:id", readers, entryHandler.GetByID)
	entries.Post("/:id/post", writers, entryHandler.Post)

	// Integridad
	integrityGroup := protected.Group("/integrity")
	integrityHandler := NewIntegrityHandler(deps.VerifyUC, deps.ExportUC, deps.Binder, deps.DateField)
	integrityGroup.Get("/report", readers, integrityHandler.Report)
	integrityGroup.Get("/report.xml", readers, integrityHandler.ReportXML)
	integrityGroup.Get("/report.pdf", readers, integrityHandler.ReportPDF)
	integrityGroup.Post("/unblock", RequireRole(jwt.RoleAdmin), integrityHandler.Unblock)
}
