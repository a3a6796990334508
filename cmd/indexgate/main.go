package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/indexgate/indexgate/lease"
	"github.com/indexgate/indexgate/searcher"
	"github.com/indexgate/indexgate/service"
	"github.com/indexgate/indexgate/service/loader"
	"github.com/indexgate/indexgate/service/refresher"
	"github.com/indexgate/indexgate/service/search"
	"github.com/indexgate/indexgate/textindexer/store/memory"
	"github.com/indexgate/indexgate/tracer"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"golang.org/x/xerrors"
)

var (
	appName = "indexgate"
	appSha  = "populated-at-link-time"
	logger  *logrus.Entry
)

func main() {
	host, _ := os.Hostname()
	rootLogger := logrus.New()
	rootLogger.SetFormatter(new(logrus.JSONFormatter))
	logger = rootLogger.WithFields(logrus.Fields{
		"app":  appName,
		"sha":  appSha,
		"host": host,
	})

	if err := makeApp().Run(os.Args); err != nil {
		logger.WithField("err", err).Error("shutting down due to error")
		_ = os.Stderr.Sync()
		os.Exit(1)
	}
}

func makeApp() *cli.App {
	app := cli.NewApp()
	app.Name = appName
	app.Version = appSha
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "listen-addr",
			Value:  ":5985",
			EnvVar: "LISTEN_ADDR",
			Usage:  "The address for exposing the search endpoint",
		},
		cli.IntFlag{
			Name:   "metrics-port",
			Value:  9090,
			EnvVar: "METRICS_PORT",
			Usage:  "The port for exposing prometheus metrics",
		},
		cli.IntFlag{
			Name:   "pprof-port",
			Value:  6060,
			EnvVar: "PPROF_PORT",
			Usage:  "The port for exposing pprof endpoints",
		},
		cli.StringFlag{
			Name:   "seed-file",
			EnvVar: "SEED_FILE",
			Usage:  "A newline-delimited JSON file (optionally .zst compressed) with the documents to index",
		},
		cli.StringFlag{
			Name:   "schema-file",
			EnvVar: "SCHEMA_FILE",
			Usage:  "A YAML file listing the keyword, numeric and unstored fields of the seed documents",
		},
		cli.BoolFlag{
			Name:   "watch-seed",
			EnvVar: "WATCH_SEED",
			Usage:  "Reload the seed file whenever it changes",
		},
		cli.BoolFlag{
			Name:   "serve-source-docs",
			EnvVar: "SERVE_SOURCE_DOCS",
			Usage:  "Answer include_docs requests with the seed file entries of the matched documents",
		},
		cli.DurationFlag{
			Name:   "refresh-interval",
			Value:  time.Second,
			EnvVar: "REFRESH_INTERVAL",
			Usage:  "The time between background snapshot refreshes; 0 disables them",
		},
		cli.StringFlag{
			Name:   "log-level",
			Value:  "info",
			EnvVar: "LOG_LEVEL",
			Usage:  "The minimum level of emitted log entries",
		},
		cli.BoolFlag{
			Name:   "jaeger",
			EnvVar: "JAEGER_ENABLED",
			Usage:  "Report tracing spans to jaeger; the agent is configured through the JAEGER_* env vars",
		},
	}
	app.Action = runMain
	return app
}

func runMain(appCtx *cli.Context) error {
	level, err := logrus.ParseLevel(appCtx.String("log-level"))
	if err != nil {
		return xerrors.Errorf("invalid log level: %w", err)
	}
	logger.Logger.SetLevel(level)

	if appCtx.Bool("jaeger") {
		if err = tracer.InstallGlobal(appName); err != nil {
			return xerrors.Errorf("unable to set up tracing: %w", err)
		}
		defer func() { _ = tracer.Pool.Close() }()
	}

	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	engine, err := memory.NewInMemoryBleveEngine()
	if err != nil {
		return err
	}
	defer func() { _ = engine.Close() }()

	leases, err := lease.NewManager(ctx, lease.Config{
		Opener: engine,
		Logger: logger.WithField("component", "lease"),
	})
	if err != nil {
		return err
	}
	defer func() { _ = leases.Close() }()

	svcGroup, err := setupServices(appCtx, engine, leases)
	if err != nil {
		return err
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGHUP, syscall.SIGTERM)
		select {
		case s := <-sigCh:
			logger.WithField("signal", s.String()).Infof("shutting down due to signal")
			cancelFn()
		case <-ctx.Done():
		}
	}()

	return svcGroup.Run(ctx)
}

func setupServices(appCtx *cli.Context, engine *memory.InMemoryBleveEngine, leases *lease.Manager) (service.Group, error) {
	var (
		svcGroup service.Group
		docStore searcher.DocumentStore
	)

	if seedFile := appCtx.String("seed-file"); seedFile != "" {
		schema, err := loader.LoadSchema(appCtx.String("schema-file"))
		if err != nil {
			return nil, err
		}

		loaderSvc, err := loader.NewService(loader.Config{
			Writer:   engine,
			SeedFile: seedFile,
			Schema:   schema,
			Watch:    appCtx.Bool("watch-seed"),
			Logger:   logger.WithField("service", "loader"),
		})
		if err != nil {
			return nil, err
		}
		svcGroup = append(svcGroup, loaderSvc)
		docStore = documentStore(appCtx.Bool("serve-source-docs"), loaderSvc)
	} else {
		logger.Warn("no seed file specified; serving an empty index")
	}

	if interval := appCtx.Duration("refresh-interval"); interval > 0 {
		refresherSvc, err := refresher.NewService(refresher.Config{
			RefreshAPI: leases,
			Interval:   interval,
			Logger:     logger.WithField("service", "refresher"),
		})
		if err != nil {
			return nil, err
		}
		svcGroup = append(svcGroup, refresherSvc)
	}

	executor, err := searcher.NewExecutor(searcher.Config{
		Parser:        engine,
		DocumentStore: docStore,
		Logger:        logger.WithField("component", "searcher"),
	})
	if err != nil {
		return nil, err
	}

	searchSvc, err := search.NewService(search.Config{
		LeaseAPI:   leases,
		SearchAPI:  executor,
		ListenAddr: appCtx.String("listen-addr"),
		Logger:     logger.WithField("service", "search"),
	})
	if err != nil {
		return nil, err
	}
	svcGroup = append(svcGroup, searchSvc)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	svcGroup = append(svcGroup, &httpService{
		name:    "metrics",
		addr:    fmt.Sprintf(":%d", appCtx.Int("metrics-port")),
		handler: metricsMux,
	})

	pprofMux := http.NewServeMux()
	pprofMux.HandleFunc("/debug/pprof/", pprof.Index)
	pprofMux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	pprofMux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	pprofMux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	pprofMux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	svcGroup = append(svcGroup, &httpService{
		name:    "pprof",
		addr:    fmt.Sprintf(":%d", appCtx.Int("pprof-port")),
		handler: pprofMux,
	})

	return svcGroup, nil
}

// documentStore returns the store used for include_docs requests. Unless
// serving source documents is enabled, rows never carry a document.
func documentStore(serveSource bool, loaderSvc *loader.Service) searcher.DocumentStore {
	if !serveSource || loaderSvc == nil {
		return searcher.NoopDocumentStore{}
	}
	return loaderSvc
}

// httpService serves an auxiliary HTTP handler as part of a service.Group.
type httpService struct {
	name    string
	addr    string
	handler http.Handler
}

func (s *httpService) Name() string { return s.name }

func (s *httpService) Run(ctx context.Context) error {
	l, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	defer func() { _ = l.Close() }()

	srv := &http.Server{Addr: s.addr, Handler: s.handler}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	logger.WithFields(logrus.Fields{"service": s.name, "addr": s.addr}).Info("listening for requests")
	if err = srv.Serve(l); err == http.ErrServerClosed {
		err = nil
	}
	return err
}
