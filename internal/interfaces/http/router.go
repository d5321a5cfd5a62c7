package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Kardex-api/internal/application/billing"
	"github.com/jhoicas/Kardex-api/internal/application/ledger"
	"github.com/jhoicas/Kardex-api/internal/application/projection"
	"github.com/jhoicas/Kardex-api/internal/application/reconciliation"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
	"github.com/jhoicas/Kardex-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	LedgerUC         *ledger.UseCase
	ProjectionUC     *projection.UseCase
	BillingUC        *billing.UseCase
	ReconciliationUC *reconciliation.UseCase
	Products         repository.ProductRepository
	Locations        repository.LocationRepository
	JWTSecret        string
	Log              *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Health (público)
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Rutas protegidas (requieren Bearer Token con tenant)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Kardex y proyección (protegido)
	ledgerGroup := protected.Group("/ledger")
	ledgerHandler := NewLedgerHandler(deps.LedgerUC, deps.ProjectionUC, deps.Log)
	ledgerGroup.Post("/movements", ledgerHandler.AppendMovement)
	ledgerGroup.Get("/movements", ledgerHandler.ListMovements)
	ledgerGroup.Get("/balances", ledgerHandler.GetBalance)
	ledgerGroup.Post("/balances/rebuild", ledgerHandler.RebuildBalance)
	ledgerGroup.Get("/valuation/layers", ledgerHandler.GetLayers)

	// Documentos (protegido)
	documents := protected.Group("/documents")
	documentHandler := NewDocumentHandler(deps.BillingUC, deps.Log)
	documents.Post("/", documentHandler.Finalize)
	documents.Get("/:id", documentHandler.GetByID)
	documents.Post("/:id/void", documentHandler.Void)
	documents.Post("/:id/payments", documentHandler.RegisterPayment)

	// Conciliación física (protegido)
	recons := protected.Group("/reconciliations")
	reconHandler := NewReconciliationHandler(deps.ReconciliationUC, deps.Log)
	recons.Post("/", reconHandler.Compare)
	recons.Get("/:id", reconHandler.GetByID)
	recons.Post("/:id/apply", reconHandler.Apply)

	// Catálogo (protegido)
	catalogHandler := NewCatalogHandler(deps.Products, deps.Locations, deps.Log)
	products := protected.Group("/products")
	products.Post("/", catalogHandler.CreateProduct)
	products.Get("/", catalogHandler.ListProducts)
	locations := protected.Group("/locations")
	locations.Post("/", catalogHandler.CreateLocation)
	locations.Get("/", catalogHandler.ListLocations)

	// Administración (protegido, solo admin)
	admin := protected.Group("/admin", RequireRole("admin"))
	admin.Post("/valuation/migrate", ledgerHandler.MigrateValuation)
}
