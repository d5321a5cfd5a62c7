package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jhoicas/Kardex-api/internal/application/billing"
	"github.com/jhoicas/Kardex-api/internal/application/ledger"
	"github.com/jhoicas/Kardex-api/internal/application/projection"
	"github.com/jhoicas/Kardex-api/internal/application/reconciliation"
	"github.com/jhoicas/Kardex-api/internal/application/sequence"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
	"github.com/jhoicas/Kardex-api/internal/infrastructure/memory"
	"github.com/jhoicas/Kardex-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Kardex-api/internal/interfaces/http"
	"github.com/jhoicas/Kardex-api/pkg/config"
	"github.com/jhoicas/Kardex-api/pkg/fiscal"
	"github.com/jhoicas/Kardex-api/pkg/logger"
)

// backends agrupa los puertos que el wiring necesita, sea PostgreSQL o memoria.
type backends struct {
	txRunner  ledger.TxRunner
	movements repository.MovementRepository
	balances  repository.BalanceRepository
	layers    repository.ValuationLayerRepository
	sequences repository.SequenceRepository
	documents repository.DocumentRepository
	recons    repository.ReconciliationRepository
	settings  repository.SettingsRepository
	products  repository.ProductRepository
	locations repository.LocationRepository
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	b, err := newBackends(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar persistencia")
	}
	defer b.close()

	fyStartMonth, err := fiscal.StartMonth(cfg.Ledger.FYStartMonth)
	if err != nil {
		log.Fatal().Err(err).Msg("configuración de año fiscal")
	}

	ledgerUC := ledger.NewUseCase(
		b.txRunner, b.products, b.locations, b.movements, b.layers, b.settings,
		ledger.Defaults{
			ValuationMethod:    cfg.Ledger.ValuationMethod,
			AllowNegativeStock: cfg.Ledger.AllowNegativeStock,
			FYStartMonth:       fyStartMonth,
		},
	)
	projectionUC := projection.NewUseCase(b.txRunner, ledgerUC, b.movements, b.balances)
	sequenceUC := sequence.NewUseCase(b.sequences, cfg.Ledger.SequenceStart, fyStartMonth)
	billingUC := billing.NewUseCase(b.txRunner, ledgerUC, sequenceUC, b.products, b.locations, b.documents)
	reconciliationUC := reconciliation.NewUseCase(b.txRunner, ledgerUC, b.balances, b.recons)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		LedgerUC:         ledgerUC,
		ProjectionUC:     projectionUC,
		BillingUC:        billingUC,
		ReconciliationUC: reconciliationUC,
		Products:         b.products,
		Locations:        b.locations,
		JWTSecret:        cfg.JWT.Secret,
		Log:              log,
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

// newBackends conecta a PostgreSQL; en development sin DATABASE_URL ni DB_HOST
// explícito cae al backend en memoria (útil para demos y pruebas locales).
func newBackends(ctx context.Context, cfg *config.Config, log *logger.Logger) (*backends, error) {
	if cfg.App.Env == "development" && cfg.DB.DatabaseURL == "" && os.Getenv("DB_HOST") == "" {
		log.Warn().Msg("sin DATABASE_URL en development: usando backend en memoria (no persistente)")
		store := memory.NewStore()
		repos := store.Repos()
		return &backends{
			txRunner:  memory.NewTxRunner(store),
			movements: repos.Movements,
			balances:  repos.Balances,
			layers:    repos.Layers,
			sequences: repos.Sequences,
			documents: repos.Documents,
			recons:    repos.Reconciliations,
			settings:  repos.Settings,
			products:  memory.NewProductRepository(store),
			locations: memory.NewLocationRepository(store),
			close:     func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &backends{
		txRunner:  postgres.NewTxRunner(pool, cfg.Ledger.LockTimeoutMS),
		movements: postgres.NewMovementRepository(pool),
		balances:  postgres.NewBalanceRepository(pool),
		layers:    postgres.NewValuationLayerRepository(pool),
		sequences: postgres.NewSequenceRepository(pool),
		documents: postgres.NewDocumentRepository(pool),
		recons:    postgres.NewReconciliationRepository(pool),
		settings:  postgres.NewSettingsRepository(pool),
		products:  postgres.NewProductRepository(pool),
		locations: postgres.NewLocationRepository(pool),
		close:     pool.Close,
	}, nil
}
