package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"kwcluster/internal/config"
	"kwcluster/internal/handler"
	"kwcluster/internal/service"
	"kwcluster/pkg/api"
	"kwcluster/pkg/keyword"
	"kwcluster/pkg/logger"
	"kwcluster/pkg/storage"
)

type Application struct {
	configPath string
	debug      bool
}

func main() {
	app := &Application{}

	flag.StringVar(&app.configPath, "config", os.Getenv("KWCLUSTER_CONFIG"), "Configuration file path (env: KWCLUSTER_CONFIG)")
	flag.BoolVar(&app.debug, "debug", false, "Enable debug mode")
	flag.Parse()

	if err := app.Run(); err != nil {
		log.Fatalf("Application failed: %v", err)
	}
}

func (app *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.NewManager().Load(app.configPath)
	if err != nil {
		return err
	}
	if app.debug {
		cfg.Logger.Level = "debug"
	}
	logger.SetLogger(logger.New(cfg.Logger))
	l := logger.GetLogger().WithComponent("server")

	profiles, err := keyword.LoadProfilesFile(cfg.Source.ProfilesFile)
	if err != nil {
		return err
	}
	if _, err := profiles.Lookup(cfg.Source.Profile); err != nil {
		return fmt.Errorf("invalid source.profile: %w", err)
	}

	var cache storage.TableCache = storage.NoopCache{}
	if cfg.Cache.Enabled {
		memCache := storage.NewMemoryCacheWithTTL(cfg.Cache.MaxSize, cfg.Cache.TTL)
		defer memCache.Close()
		cache = memCache
	}

	remote := api.NewHTTPAPIClient(api.ClientConfig{
		Endpoint:      cfg.API.Endpoint,
		Token:         cfg.API.Token,
		Timeout:       cfg.API.Timeout,
		MaxRetries:    cfg.API.MaxRetries,
		RetryDelay:    cfg.API.RetryDelay,
		MaxConcurrent: cfg.API.MaxConcurrent,
	})

	analyzer := service.NewAnalyzer(service.AnalyzerConfig{
		Profiles:       profiles,
		DefaultProfile: cfg.Source.Profile,
	}, remote, cache)

	ctrl := handler.NewController(analyzer, cache, handler.ControllerConfig{
		DefaultSheet:   cfg.Source.Sheet,
		DefaultProfile: cfg.Source.Profile,
		Criteria:       cfg.Filter.Criteria(),
		MaxUploadBytes: int64(cfg.Server.MaxUploadMB) << 20,
		RemoteDefaults: api.OrganicKeywordsRequest{
			Country: cfg.API.Country,
			Mode:    cfg.API.Mode,
			Limit:   cfg.API.Limit,
		},
	})
	server := handler.NewApp(ctrl, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		l.Info("Shutdown signal received")
		cancel()
	}()

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Listen(addr)
	}()

	logger.GetSecurityLogger().SafeInfo("Server started", map[string]interface{}{
		"addr":         addr,
		"profile":      cfg.Source.Profile,
		"api_endpoint": cfg.API.Endpoint,
		"api_token":    cfg.API.Token,
		"cache":        cfg.Cache.Enabled,
	})

	select {
	case err := <-errChan:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	l.Info("Shutting down gracefully")
	if err := server.ShutdownWithTimeout(cfg.Server.ShutdownGrace); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	l.Info("Server stopped")

	return nil
}
