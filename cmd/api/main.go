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
	"github.com/shopspring/decimal"

	loancache "loan-service/internal/adapter/cache"
	httpadp "loan-service/internal/adapter/http"
	mw "loan-service/internal/adapter/middleware"
	"loan-service/internal/adapter/repository/mysql"
	"loan-service/internal/config"
	docdomain "loan-service/internal/domain/document"
	loandomain "loan-service/internal/domain/loan"
	"loan-service/internal/infrastructure/cache"
	"loan-service/internal/infrastructure/db"
	"loan-service/internal/infrastructure/messaging"
	"loan-service/internal/infrastructure/metrics"
	"loan-service/internal/infrastructure/storage"
	"loan-service/internal/usecase/application"
	"loan-service/internal/usecase/document"
	"loan-service/internal/usecase/loan"
	"loan-service/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fatal("load config", err)
	}
	log := logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err := cfg.Validate(); err != nil {
		fatal("invalid config", err)
	}

	// money goes out as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MigrateOnStart {
		if err := db.RunMigrations(cfg.MigrateDSN(), cfg.MigrationsDir); err != nil {
			fatal("migrate", err)
		}
		log.Info("migrations applied", "dir", cfg.MigrationsDir)
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN(), db.LogLevel(cfg.DBLogLevel))
	if err != nil {
		fatal("open mysql", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		fatal("mysql handle", err)
	}
	defer sqlDB.Close()

	rdb, err := cache.OpenRedis(ctx, cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		fatal("open redis", err)
	}
	defer rdb.Close()

	var publisher loandomain.EventPublisher = messaging.LogPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := messaging.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopicDisbursed)
		defer kp.Close()
		publisher = kp
		log.Info("kafka publisher ready", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopicDisbursed)
	}

	// left nil without MinIO; uploads then answer 503
	var blobs docdomain.BlobStore
	if cfg.MinioEndpoint != "" {
		store, err := storage.NewMinioStore(storage.Config{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			fatal("minio", err)
		}
		if err := store.EnsureBucket(ctx); err != nil {
			fatal("minio bucket", err)
		}
		blobs = store
	}

	m := metrics.New()

	loans := mysql.NewLoanRepository(gdb)
	tx := mysql.NewGormUoW(gdb)

	loanUC := loan.NewUsecase(loans, tx,
		loan.WithCache(loancache.NewLoanCache(rdb, cfg.LoanCacheTTL())),
		loan.WithPublisher(publisher),
		loan.WithRecorder(m),
		loan.WithMaxActiveLoans(cfg.MaxActiveLoans),
	)
	appUC := application.NewUsecase(mysql.NewApplicationRepository(gdb), tx)
	docUC := document.NewUsecase(mysql.NewDocumentRepository(gdb), loans, blobs, tx)

	health := httpadp.NewHandler().
		WithCheck("mysql", sqlDB.PingContext).
		WithCheck("redis", func(ctx context.Context) error { return rdb.Ping(ctx).Err() })

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(
		echomw.Recover(),
		mw.RequestID(),
		mw.AccessLog(),
		mw.Metrics(m),
		mw.IdempotencyMiddleware(rdb, cfg.IdempTTL()),
	)

	httpadp.Register(e, httpadp.Routes{
		Health:       health,
		Loans:        httpadp.NewLoanHandler(loanUC),
		Applications: httpadp.NewApplicationHandler(appUC),
		Documents:    httpadp.NewDocumentHandler(docUC),
		Metrics:      m.Handler(),
	})

	go func() {
		addr := ":" + cfg.AppPort
		log.Info("listening", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("http server", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", "err", err)
	}
}

func fatal(msg string, err error) {
	logger.WithContext(context.Background()).Error(msg, "err", err)
	os.Exit(1)
}
