package main

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dcatool/internal/config"
	"dcatool/internal/logger"
	"dcatool/internal/params"
	"dcatool/internal/server"
	"dcatool/internal/source"
	"dcatool/internal/source/binance"
	"dcatool/internal/source/yahoo"
	"dcatool/internal/store"
)

func main() {
	cfgPath := os.Getenv("DCATOOL_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config failed: %v", err)
	}
	logFile, err := setupLogOutput(cfg.App.LogPath)
	if err != nil {
		log.Fatalf("initializing log file failed: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}
	logger.SetLevel(cfg.App.LogLevel)

	st, err := store.New(cfg.Store.Path)
	if err != nil {
		log.Fatalf("opening store failed: %v", err)
	}
	defer st.Close()

	registry, err := params.NewRegistry(cfg.Params.Path)
	if err != nil {
		log.Fatalf("loading presets failed: %v", err)
	}

	barCache, err := source.NewBarCache(cfg.Source.CachePath)
	if err != nil {
		log.Fatalf("opening bar cache failed: %v", err)
	}
	defer barCache.Close()
	sources := source.NewProvider(barCache,
		binance.New(binance.Config{
			RESTBaseURL: cfg.Source.Binance.RESTBaseURL,
			HTTPTimeout: time.Duration(cfg.Source.Binance.HTTPTimeoutSec) * time.Second,
		}),
		yahoo.New())

	svc, err := server.NewService(st, registry)
	if err != nil {
		log.Fatalf("building service failed: %v", err)
	}
	httpSrv, err := server.NewHTTPServer(server.HTTPConfig{
		Addr:     cfg.Server.Addr,
		Service:  svc,
		Store:    st,
		Registry: registry,
		Sources:  sources,
	})
	if err != nil {
		log.Fatalf("building http server failed: %v", err)
	}

	logger.Infof("dcatool listening on %s (store=%s, presets=%s)",
		cfg.Server.Addr, cfg.Store.Path, cfg.Params.Path)
	if err := httpSrv.Run(); err != nil {
		log.Fatalf("http server exited: %v", err)
	}
}

func setupLogOutput(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	dir := filepath.Dir(trimmed)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	mw := io.MultiWriter(os.Stdout, file)
	log.SetOutput(mw)
	logger.SetOutput(mw)
	return file, nil
}
