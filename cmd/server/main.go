package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/wehave/market/internal/config"
	"github.com/wehave/market/internal/services/db"
	"github.com/wehave/market/internal/services/firebase"
	"github.com/wehave/market/internal/services/webhook"
	"github.com/wehave/market/internal/setup"
	"github.com/wehave/market/pkg/market"
	"github.com/wehave/market/pkg/queue"
	"github.com/wehave/market/pkg/refresh"
	"github.com/wehave/market/pkg/router"
	"go.uber.org/zap"
)

type store interface {
	market.SnapshotStore
	market.PushTokenStore
}

func main() {
	log.Default().Println("launching server...")

	env := flag.String("env", "", "path to .env file")

	port := flag.Int("port", 3000, "port to listen on")

	sync := flag.Int("sync", 30, "seconds between snapshot refreshes")

	nodb := flag.Bool("nodb", false, "keep the snapshot in memory instead of postgres")

	debug := flag.Bool("debug", false, "enable debug logs")

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zcfg := zap.NewProductionConfig()
	if *debug {
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	logger, err := zcfg.Build()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	conf, err := config.New(ctx, *env)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	if conf.SentryURL != "" && conf.SentryURL != "x" {
		err = sentry.Init(sentry.ClientOptions{
			Dsn:              conf.SentryURL,
			Release:          market.Version,
			Environment:      conf.NearNetwork,
			TracesSampleRate: 1.0,
		})
		if err != nil {
			logger.Fatal("sentry.Init", zap.Error(err))
		}
		// Flush buffered events before the program terminates.
		defer sentry.Flush(2 * time.Second)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	logger.Info("connecting to rpc...", zap.String("network", conf.NearNetwork), zap.String("url", conf.NearRPCURL))

	m, err := setup.New(ctx, conf, reg, logger)
	if err != nil {
		fatal(logger, "failed to set up marketplace", err)
	}

	var d store
	if *nodb {
		logger.Info("running without database, snapshots are kept in memory")
		d = db.NewMemoryDB()
	} else {
		logger.Info("starting internal db service...")

		dbconf, err := config.NewDBConfig(ctx, "")
		if err != nil {
			fatal(logger, "failed to load db config", err)
		}

		pg, err := db.NewDB(m.Network.ID, dbconf.DBUser, dbconf.DBPassword, dbconf.DBName, dbconf.DBHost, dbconf.DBReaderHost)
		if err != nil {
			fatal(logger, "failed to open db", err)
		}
		defer pg.Close()

		d = pg
	}

	wm := webhook.NewMessager(conf.DiscordURL, m.Network.ID, conf.DiscordURL != "")

	fb, err := firebase.NewPushService(ctx, conf.FirebaseCredentialsPath, logger)
	if err != nil {
		fatal(logger, "failed to start push service", err)
	}

	pushq := queue.NewService(3, 100, ctx, wm)
	defer pushq.Close()

	quitAck := make(chan error)

	go func() {
		quitAck <- pushq.Start(queue.NewPushProcessor(ctx, fb, d, logger))
	}()

	logger.Info("starting refresh service...")

	rf := refresh.New(m.Crowdfunds, m.Governance, d, d, pushq, logger)

	go func() {
		quitAck <- rf.Background(ctx, *sync)
	}()

	logger.Info("starting api service...")

	api := router.NewServer(conf.APIKEY, m.Network, m.Wallet, m.Keys, m.Provider, m.Crowdfunds, m.Governance, d, d, reg)

	go func() {
		quitAck <- api.Start(*port)
	}()

	logger.Info("listening", zap.Int("port", *port))

	wm.Notify(ctx, "server started")

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-quitAck:
		if err != nil {
			wm.NotifyError(context.Background(), err)
			fatal(logger, "service stopped", err)
		}
	}
}

func fatal(logger *zap.Logger, msg string, err error) {
	sentry.CaptureException(err)
	sentry.Flush(2 * time.Second)
	logger.Fatal(msg, zap.Error(err))
}
