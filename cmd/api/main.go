package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	_ "github.com/jhoicas/stock-movements-api/docs"
	"github.com/jhoicas/stock-movements-api/internal/application/auth"
	"github.com/jhoicas/stock-movements-api/internal/application/inventory"
	"github.com/jhoicas/stock-movements-api/internal/application/usecase"
	"github.com/jhoicas/stock-movements-api/internal/domain/repository"
	"github.com/jhoicas/stock-movements-api/internal/infrastructure/memory"
	"github.com/jhoicas/stock-movements-api/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/stock-movements-api/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/stock-movements-api/internal/interfaces/http"
	"github.com/jhoicas/stock-movements-api/pkg/config"
	"github.com/jhoicas/stock-movements-api/pkg/logger"
)

// storage repositorios y runner transaccional del driver elegido.
type storage struct {
	users      repository.UserRepository
	products   repository.ProductRepository
	categories repository.CategoryRepository
	movements  repository.MovementRepository
	txRunner   inventory.TxRunner
	ping       func(ctx context.Context) error
	close      func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("configuración inválida")
	}
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	store, err := newStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer store.close()

	var idempotency httpRouter.IdempotencyGuard
	switch {
	case cfg.Redis.Enabled():
		client, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer client.Close()
		idempotency = infraredis.NewIdempotencyStore(client, cfg.Redis.IdempotencyTTL)
	case cfg.Storage.Driver == config.StorageDriverMemory:
		idempotency = memory.NewIdempotencyStore(cfg.Redis.IdempotencyTTL)
	default:
		log.Warn().Msg("REDIS_ADDR vacío: Idempotency-Key deshabilitado")
	}

	authUC := auth.NewAuthUseCase(store.users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	if cfg.Auth.AdminEmail != "" {
		created, err := authUC.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword)
		if err != nil {
			log.Fatal().Err(err).Msg("crear admin inicial")
		}
		if created {
			log.Info().Str("email", cfg.Auth.AdminEmail).Msg("admin inicial creado")
		}
	}
	productUC := usecase.NewProductUseCase(store.products, store.categories)
	categoryUC := usecase.NewCategoryUseCase(store.categories)
	recordMovementUC := inventory.NewRecordMovementUseCase(store.txRunner, log)
	movementQueryUC := inventory.NewMovementQueryUseCase(store.movements, store.products)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Stock Movements API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := store.ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:         authUC,
		ProductUC:      productUC,
		CategoryUC:     categoryUC,
		RecordMovement: recordMovementUC,
		MovementQuery:  movementQueryUC,
		Idempotency:    idempotency,
		JWTSecret:      cfg.JWT.Secret,
		Log:            log,
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

func newStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		s := memory.NewStore()
		log.Warn().Msg("STORAGE_DRIVER=memory: los datos se pierden al reiniciar")
		return &storage{
			users:      memory.NewUserRepository(s),
			products:   memory.NewProductRepository(s),
			categories: memory.NewCategoryRepository(s),
			movements:  memory.NewMovementRepository(s),
			txRunner:   memory.NewTxRunner(s),
			ping:       func(context.Context) error { return nil },
			close:      func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("schema aplicado")
	}
	return &storage{
		users:      postgres.NewUserRepository(pool),
		products:   postgres.NewProductRepository(pool),
		categories: postgres.NewCategoryRepository(pool),
		movements:  postgres.NewMovementRepository(pool),
		txRunner:   postgres.NewTxRunner(pool, cfg.DB.TxMaxRetries, log),
		ping:       pool.Ping,
		close:      pool.Close,
	}, nil
}
