package app

import (
	"fmt"
	"net/http"

	"gorm.io/gorm"

	"ronda-app-go/internal/config"
	"ronda-app-go/internal/db"
	agendadomain "ronda-app-go/internal/domain/agenda"
	contratosdomain "ronda-app-go/internal/domain/contratos"
	dashboarddomain "ronda-app-go/internal/domain/dashboard"
	rondasdomain "ronda-app-go/internal/domain/rondas"
	syncdomain "ronda-app-go/internal/domain/sync"
	"ronda-app-go/internal/repository/inmemory"
	agendarepo "ronda-app-go/internal/repository/postgres/agenda"
	contratosrepo "ronda-app-go/internal/repository/postgres/contratos"
	dashboardrepo "ronda-app-go/internal/repository/postgres/dashboard"
	rondasrepo "ronda-app-go/internal/repository/postgres/rondas"
	syncrepo "ronda-app-go/internal/repository/postgres/sync"
	"ronda-app-go/internal/transport/httpserver"
	"ronda-app-go/internal/transport/httpserver/handler"
	"ronda-app-go/pkg/logger"
)

type App struct {
	cfg        config.Config
	httpServer *http.Server
	db         *gorm.DB
}

func New(log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}

	log.Info("app: initializing database")
	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		return nil, err
	}

	if cfg.DB.AutoMigrate {
		log.Info("app: applying migrations", "dir", cfg.DB.MigrationsDir)
		if err := db.Migrate(dbConn, cfg.DB.MigrationsDir, log); err != nil {
			_ = closeDB(dbConn)
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	contratos := contratosdomain.NewServiceWithCache(contratosrepo.NewPostgres(dbConn), inmemory.NewContratoCache(), cfg.Cache.ContratoTTL)
	rondas := rondasdomain.NewService(rondasrepo.NewPostgres(dbConn))
	agenda := agendadomain.NewService(agendarepo.NewPostgres(dbConn))
	dashboard := dashboarddomain.NewServiceWithCache(dashboardrepo.NewPostgres(dbConn), agenda, inmemory.NewDashboardCache(), dashboarddomain.Config{
		CacheTTL:      cfg.Cache.DashboardTTL,
		UpcomingDays:  cfg.Cache.UpcomingDays,
		UpcomingLimit: cfg.Cache.UpcomingLimit,
	})
	sync := syncdomain.NewService(syncrepo.NewPostgres(dbConn), rondas, agenda, syncdomain.WithLogger(logger.Component(log, "sync")))

	log.Info("app: initializing router")
	handlers := handler.New(contratos, rondas, agenda, dashboard, sync, logger.Component(log, "http"))
	router := httpserver.NewRouter(cfg, handlers)

	log.Info("app: initializing http server")
	srv := httpserver.New(cfg, router)

	return &App{
		cfg:        cfg,
		httpServer: srv,
		db:         dbConn,
	}, nil
}

// Migrate connects, applies pending migrations and disconnects. It ignores
// DB_AUTO_MIGRATE and is meant for deploy steps that run before the server.
func Migrate(log logger.Logger) error {
	cfg, err := config.Load(log)
	if err != nil {
		return err
	}
	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		return err
	}
	defer func() { _ = closeDB(dbConn) }()

	if err := db.Migrate(dbConn, cfg.DB.MigrationsDir, log); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return closeDB(a.db)
}

func closeDB(conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
