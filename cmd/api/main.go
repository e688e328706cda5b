package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Clinica-api/internal/application/inventory"
	"github.com/jhoicas/Clinica-api/internal/domain/repository"
	"github.com/jhoicas/Clinica-api/internal/infrastructure/memory"
	"github.com/jhoicas/Clinica-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Clinica-api/internal/infrastructure/redisaudit"
	httpRouter "github.com/jhoicas/Clinica-api/internal/interfaces/http"
	"github.com/jhoicas/Clinica-api/pkg/config"
	"github.com/jhoicas/Clinica-api/pkg/logger"
)

// ledgerPorts puertos del libro según el almacenamiento elegido.
type ledgerPorts struct {
	txRunner  inventory.TxRunner
	products  repository.ProductRepository
	movements repository.MovementRepository
	actors    repository.ActorRepository
	suppliers repository.SupplierRepository
	audit     repository.AuditSink
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.App.Storage).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ports, err := buildPorts(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer ports.close()

	recordUC := inventory.NewRecordMovementUseCase(
		ports.txRunner, ports.products, ports.actors, ports.suppliers, ports.audit, log,
		inventory.LedgerOptions{
			CommitTimeout: cfg.Ledger.CommitTimeout,
			AuditTimeout:  cfg.Ledger.AuditTimeout,
		},
	)
	queryUC := inventory.NewMovementQueryUseCase(ports.movements)
	alertUC := inventory.NewStockAlertUseCase(ports.products)
	statusUC := inventory.NewStockStatusUseCase(ports.products, ports.movements)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Clínica - Inventario API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": cfg.App.Storage})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		RecordMovement: recordUC,
		Query:          queryUC,
		Alerts:         alertUC,
		Status:         statusUC,
		Actors:         ports.actors,
		JWTSecret:      cfg.JWT.Secret,
		JWTIssuer:      cfg.JWT.Issuer,
		Logger:         log,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Listen(cfg.HTTP.Addr())
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("señal de apagado recibida, cerrando servidor...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("servidor HTTP finalizado")
	}
	log.Info().Msg("aplicación detenida")
}

// buildPorts conecta PostgreSQL (o el almacén en memoria) y elige el destino de auditoría:
// stream de Redis si REDIS_ADDR está definido, si no la tabla audit_logs.
func buildPorts(ctx context.Context, cfg *config.Config, log *logger.Logger) (*ledgerPorts, error) {
	if cfg.App.Storage == config.StorageMemory {
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		store := memory.NewStore()
		return &ledgerPorts{
			txRunner:  store,
			products:  memory.NewProductRepository(store),
			movements: memory.NewMovementRepository(store),
			actors:    memory.NewActorRepository(store),
			suppliers: memory.NewSupplierRepository(store),
			audit:     memory.NewAuditLog(),
			close:     func() {},
		}, nil
	}

	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(cfg.DB.ConnectionString(), log.Named("migrate")); err != nil {
			return nil, err
		}
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	closers := []func(){pool.Close}

	var audit repository.AuditSink = postgres.NewAuditRepository(pool)
	if cfg.Redis.Addr != "" {
		client, err := redisaudit.NewClient(ctx, cfg.Redis)
		if err != nil {
			pool.Close()
			return nil, err
		}
		closers = append(closers, func() { _ = client.Close() })
		audit = redisaudit.NewStreamSink(client, cfg.Redis.AuditStream)
		log.Info().Str("stream", cfg.Redis.AuditStream).Msg("auditoría en Redis")
	}

	return &ledgerPorts{
		txRunner:  postgres.NewTxRunner(pool),
		products:  postgres.NewProductRepository(pool),
		movements: postgres.NewMovementRepository(pool),
		actors:    postgres.NewActorRepository(pool),
		suppliers: postgres.NewSupplierRepository(pool),
		audit:     audit,
		close: func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		},
	}, nil
}
