// Package main - Entry point for the green-roi HTTP server
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"green-roi/api"
	"green-roi/core/catalog"
	"green-roi/core/engine"
	"green-roi/internal/config"
	"green-roi/internal/logging"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		logging.Error("server stopped", zap.Error(err))
		fmt.Fprintf(os.Stderr, "green-roi-server: %v\n", err)
		logging.Sync()
		os.Exit(1)
	}
	logging.Sync()
}

func run() error {
	cfgFile := pflag.String("config", "", "config file, YAML or JSON")
	addr := pflag.String("addr", "", "listen address (default: server.addr from config)")
	catalogFile := pflag.String("catalog", "", "HCL reference tables (default: built-in tables)")
	verbose := pflag.BoolP("verbose", "v", false, "enable debug logging")
	pflag.Parse()

	cfg := config.Default()
	if *cfgFile != "" {
		loaded, err := config.Load(*cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *catalogFile != "" {
		cfg.Catalog.Path = *catalogFile
	}
	if *verbose {
		cfg.Logging.Level = "debug"
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := logging.Initialize(logging.WithService(cfg.Logging, "green-roi-server")); err != nil {
		return err
	}

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	eng, err := engine.NewEngine(cat, engine.ConfigFrom(cfg), logging.Named("engine"))
	if err != nil {
		return err
	}

	server := api.NewServer(eng, api.Options{
		Version:        version,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logging.Named("http"),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info("green-roi server starting",
		zap.String("version", version),
		zap.String("addr", cfg.Server.Addr),
		zap.String("catalog", cat.Source()))

	return server.ListenAndServe(ctx, cfg.Server.Addr, time.Duration(cfg.Server.ShutdownSeconds)*time.Second)
}
