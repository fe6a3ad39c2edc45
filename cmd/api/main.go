package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"landq-backend/internal/adapter/events"
	httpadp "landq-backend/internal/adapter/http"
	"landq-backend/internal/adapter/middleware"
	adapteroracle "landq-backend/internal/adapter/oracle"
	"landq-backend/internal/adapter/repository/ledger"
	"landq-backend/internal/config"
	"landq-backend/internal/domain/event"
	domainloan "landq-backend/internal/domain/loan"
	"landq-backend/internal/domain/price"
	"landq-backend/internal/infrastructure/cache"
	"landq-backend/internal/infrastructure/db"
	"landq-backend/internal/infrastructure/logger"
	"landq-backend/internal/infrastructure/metrics"
	"landq-backend/internal/usecase/loan"
	"landq-backend/internal/usecase/oracle"
	"landq-backend/internal/usecase/parcel"
	"landq-backend/internal/usecase/verification"
	"landq-backend/pkg/account"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid config", "error", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped", "error", err)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	gdb, err := db.OpenGorm(db.Options{Driver: cfg.DBDriver, DSN: cfg.DSN(), LogLevel: cfg.DBLogLevel})
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	if err := ledger.Migrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	rdb, err := cache.OpenRedis(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		return fmt.Errorf("open redis: %w", err)
	}
	defer rdb.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	col, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	sink, closeSink, err := newPublisher(cfg, rdb, log)
	if err != nil {
		return err
	}
	defer closeSink()

	rate, setter := newOracle(cfg, rdb)
	tiers, err := domainloan.NewRateTable(cfg.LoanTiers)
	if err != nil {
		return fmt.Errorf("loan tiers: %w", err)
	}
	overpay, err := loan.ParseOverpaymentPolicy(cfg.OverpaymentPolicy)
	if err != nil {
		return err
	}
	admins := account.NewSet(cfg.Admins...)

	uow := ledger.NewGormUoW(gdb)
	parcels := ledger.NewParcelRepository(gdb)
	verifications := ledger.NewVerificationRepository(gdb)
	loans := ledger.NewLoanRepository(gdb)

	parcelUC := parcel.NewUsecase(parcel.Deps{
		UoW: uow, Parcels: parcels, Events: sink, Metrics: col, Log: log,
	})
	verificationUC := verification.NewUsecase(verification.Deps{
		UoW: uow, Parcels: parcels, Verifications: verifications,
		Regions: ledger.NewRegionRepository(gdb), Events: sink, Metrics: col, Log: log,
		Policy: verification.Policy{AllowReverifyAfterReject: cfg.AllowReverifyAfterReject, Admins: admins},
	})
	loanUC := loan.NewUsecase(loan.Deps{
		UoW: uow, Parcels: parcels, Verifications: verifications, Loans: loans,
		Oracle: rate, Events: sink, Metrics: col, Log: log,
		Policy: loan.Policy{Tiers: tiers, GracePeriod: cfg.GracePeriod(), Overpayment: overpay},
	})
	oracleUC := oracle.NewUsecase(oracle.Deps{Oracle: rate, Setter: setter, Admins: admins, Log: log})

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(echomw.Logger(), echomw.Recover(), middleware.Metrics(col), middleware.Identity(),
		middleware.Idempotency(rdb, cfg.IdempotencyTTL(), log))

	httpadp.Register(e.Group(""), httpadp.Handlers{
		Health: httpadp.NewHandler(
			httpadp.Check{Name: "db", Fn: dbPinger(gdb)},
			httpadp.Check{Name: "redis", Fn: cache.Pinger(rdb)},
		),
		Parcels:      httpadp.NewParcelHandler(parcelUC, log),
		Verification: httpadp.NewVerificationHandler(verificationUC, log),
		Loans:        httpadp.NewLoanHandler(loanUC, log),
		Oracle:       httpadp.NewOracleHandler(oracleUC, log),
		Metrics:      col.Handler(),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.AppPort
		log.Info("listening", "addr", addr, "db", cfg.DBDriver, "events", cfg.EventsSink, "oracle", cfg.OracleKind)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	if iv := cfg.SweepInterval(); iv > 0 {
		g.Go(func() error {
			log.Info("default sweeper started", "interval", iv.String(), "batch", cfg.SweepBatch)
			return loanUC.RunSweeper(gctx, iv, cfg.SweepBatch)
		})
	}
	return g.Wait()
}

func newPublisher(cfg *config.Config, rdb *redis.Client, log *logger.Logger) (event.Publisher, func(), error) {
	switch cfg.EventsSink {
	case "redis":
		return events.NewStreamPublisher(rdb, cfg.EventsStream, cfg.EventsStreamMax), func() {}, nil
	case "amqp":
		p, err := events.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, nil, err
		}
		return p, func() {
			if err := p.Close(); err != nil {
				log.Warn("amqp close", "error", err)
			}
		}, nil
	default:
		return events.NewLogPublisher(log), func() {}, nil
	}
}

func newOracle(cfg *config.Config, rdb *redis.Client) (price.Oracle, price.Setter) {
	if cfg.OracleKind == "static" {
		return adapteroracle.NewStatic(cfg.OracleStaticNumerator, cfg.OracleScale), nil
	}
	o := adapteroracle.NewRedisOracle(rdb, cfg.OracleKey, cfg.OracleScale)
	return o, o
}

func dbPinger(gdb *gorm.DB) func(context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := gdb.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
