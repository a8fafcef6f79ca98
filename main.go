package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatali-fataliyev/expense_manager/api"
	"github.com/fatali-fataliyev/expense_manager/internal/auth"
	"github.com/fatali-fataliyev/expense_manager/internal/config"
	"github.com/fatali-fataliyev/expense_manager/internal/expense"
	"github.com/fatali-fataliyev/expense_manager/internal/kv"
	"github.com/fatali-fataliyev/expense_manager/internal/settings"
	"github.com/fatali-fataliyev/expense_manager/logging"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logging.Init(cfg.LogLevel, cfg.AppEnv, cfg.LogDir); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	logging.Logger.Info("application starting...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := kv.Open(ctx, cfg)
	if err != nil {
		logging.Logger.Errorf("failed to initialize storage: %v", err)
		os.Exit(1)
	}
	defer store.Close()
	logging.Logger.Infof("profile storage: %s", cfg.StoreDriver)

	var repo expense.Repository = expense.NewLocalRepository(store)
	var mongoClient *mongo.Client
	if cfg.Mongo.Enabled() {
		mongoClient, err = expense.ConnectMongo(ctx, cfg.Mongo)
		if err != nil {
			logging.Logger.Warnf("remote expense store unavailable, using local storage only: %v", err)
		} else {
			remote := expense.NewRemoteRepository(mongoClient.Database(cfg.Mongo.Database))
			repo = expense.NewFallbackRepository(remote, repo)
		}
	}
	logging.Logger.Infof("expense repository: %s", repo.Name())

	if cfg.IdentityAPIKey == "" {
		logging.Logger.Info("IDENTITY_API_KEY not set, accounts are kept in local storage")
	}
	authService := auth.NewService(store, auth.NewIdentityClient(cfg.IdentityEndpoint, cfg.IdentityAPIKey, nil))
	manager := expense.NewManager(repo, authService)

	handlers := api.NewApi(authService, manager, settings.New(store), cfg.AuthRateLimit, cfg.AuthRateBurst)

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.AppPort),
		Handler:           api.CORS(cfg.AllowedOrigins).Handler(handlers.Routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Logger.Infof("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Logger.Errorf("failed to start server: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logging.Logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Logger.Errorf("failed to shut down server: %v", err)
	}
	if mongoClient != nil {
		if err := mongoClient.Disconnect(shutdownCtx); err != nil {
			logging.Logger.Errorf("failed to disconnect from mongo: %v", err)
		}
	}
}
