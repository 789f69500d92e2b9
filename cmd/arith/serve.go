package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/zephyrtronium/arith/internal/auth"
	"github.com/zephyrtronium/arith/internal/calc"
	"github.com/zephyrtronium/arith/internal/config"
	"github.com/zephyrtronium/arith/internal/logging"
	"github.com/zephyrtronium/arith/internal/store"
	"github.com/zephyrtronium/arith/internal/web"
)

type serveCmd struct {
	Config   string `short:"c" type:"path" env:"ARITH_CONFIG" help:"YAML configuration file."`
	Addr     string `env:"ARITH_ADDR" help:"Listen address. Overrides the configuration file."`
	DB       string `env:"ARITH_DB" help:"SQLite database path. Overrides the configuration file."`
	LogFile  string `help:"Log file, or - for stderr. Overrides the configuration file."`
	LogLevel string `help:"Log level: DEBUG, INFO, WARN, or ERROR. Overrides the configuration file."`
	Secure   bool   `help:"Mark cookies HTTPS-only."`
}

// load reads the configuration file and applies flag overrides.
func (c *serveCmd) load() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	if c.Addr != "" {
		cfg.Addr = c.Addr
	}
	if c.DB != "" {
		cfg.DBPath = c.DB
	}
	if c.LogFile != "" {
		cfg.Log.Filename = c.LogFile
	}
	if c.LogLevel != "" {
		cfg.Log.Level = c.LogLevel
	}
	if c.Secure {
		cfg.SecureCookies = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

func (c *serveCmd) Run() error {
	cfg, err := c.load()
	if err != nil {
		return err
	}
	log, closer, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()
	log.Info("opened database", "db", st)

	a, err := auth.New(st, 0)
	if err != nil {
		return err
	}
	hashKey, blockKey, err := cfg.Keys()
	if err != nil {
		return err
	}
	if hashKey == nil || blockKey == nil {
		log.Warn("cookie keys not configured, using random keys; sessions will not survive a restart")
	}
	sessions := auth.NewSessions(hashKey, blockKey)
	sessions.Secure = cfg.SecureCookies

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	svc, err := calc.New(st, calc.Config{
		Prec:       cfg.Prec,
		CacheSize:  cfg.CacheSize,
		MaxExprLen: cfg.MaxExprLen,
		MaxDepth:   cfg.MaxDepth,
	}, reg, log)
	if err != nil {
		return err
	}

	srv, err := web.NewServer(web.Config{
		Addr:       cfg.Addr,
		Calc:       svc,
		Auth:       a,
		Sessions:   sessions,
		Users:      st,
		Metrics:    reg,
		MaxExprLen: cfg.MaxExprLen,
		Log:        log,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	if err := srv.Stop(); err != nil {
		return errors.Wrap(err, "shutting down")
	}
	return <-errc
}
