package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	httpadp "realestate-lifecycle/internal/adapter/http"
	"realestate-lifecycle/internal/adapter/middleware"
	"realestate-lifecycle/internal/adapter/repository/mysql"
	"realestate-lifecycle/internal/config"
	"realestate-lifecycle/internal/domain/contract"
	"realestate-lifecycle/internal/infrastructure/cache"
	"realestate-lifecycle/internal/infrastructure/db"
	"realestate-lifecycle/internal/infrastructure/logger"
	"realestate-lifecycle/internal/infrastructure/metrics"
	"realestate-lifecycle/internal/usecase/lifecycle"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid config", zap.Error(err))
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN(), logger.NewGormLogger(log, logger.GormLevel(cfg.LogLevel)))
	if err != nil {
		log.Fatal("mysql connect", zap.Error(err))
	}
	if err := mysql.AutoMigrate(gdb); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}
	log.Info("mysql connected")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := cache.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer func() { _ = rdb.Close() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	engine := lifecycle.NewEngine(
		mysql.NewInterestRepository(gdb),
		mysql.NewContractRepository(gdb),
		mysql.NewGormUoW(gdb),
		lifecycle.WithLogger(log),
		lifecycle.WithObserver(m),
		lifecycle.WithPolicy(contract.Policy{ExpiringThreshold: cfg.ExpiringThreshold()}),
	)

	health := httpadp.NewHandler(
		httpadp.Check{Name: "mysql", Fn: func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}},
		httpadp.Check{Name: "redis", Fn: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
	)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = httpadp.NewValidator()
	e.Use(
		echomw.Recover(),
		middleware.RequestLogger(log),
		middleware.Actor(),
		middleware.Idempotency(rdb, cfg.IdempotencyTTL(), log),
	)
	httpadp.NewRoutes(engine, health, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Register(e)

	go func() {
		addr := ":" + cfg.AppPort
		log.Info("listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
	log.Info("stopped")
}
