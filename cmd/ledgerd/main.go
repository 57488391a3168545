package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shivarajkarur/virukshaa-workforce-ledger/config"
	"github.com/shivarajkarur/virukshaa-workforce-ledger/internal/bootstrap"
	"github.com/shivarajkarur/virukshaa-workforce-ledger/internal/workforce/cache"
	workforcehttp "github.com/shivarajkarur/virukshaa-workforce-ledger/internal/workforce/http"
	"github.com/shivarajkarur/virukshaa-workforce-ledger/internal/workforce/poller"
	"github.com/shivarajkarur/virukshaa-workforce-ledger/internal/workforce/repository"
	"github.com/shivarajkarur/virukshaa-workforce-ledger/internal/workforce/scope"
	"github.com/shivarajkarur/virukshaa-workforce-ledger/internal/workforce/service"
	"github.com/shivarajkarur/virukshaa-workforce-ledger/internal/workforce/writer"
)

const serviceName = "virukshaa-workforce-ledger"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx := context.Background()

	rdb, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	sessions := repository.NewSessionStore(rdb, cfg.Ledger.SnapshotTTL)

	remote := workforcehttp.NewLedgerClientAdapter(
		workforcehttp.NewLedgerClient(cfg.Ledger.ServerOfRecordURL),
	)

	ledgerCache := cache.New()
	optimistic := writer.New(ledgerCache, remote)
	reconciler := poller.New(ledgerCache, remote, optimistic, cfg.Ledger.PollInterval)
	scopes := scope.NewManager(ledgerCache, sessions, reconciler)
	ledger := service.NewLedgerService(ledgerCache, scopes, optimistic)

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    serviceName,
		Version:        cfg.App.Version,
		Ledger:         ledger,
		Store:          sessions,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		log.Printf("%s listening on :%s", serviceName, cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down")

	// Persist the active scope before the process goes away so the next
	// session rehydrates from Redis instead of an empty cache.
	ledger.DeactivateProject(ctx)

	sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
