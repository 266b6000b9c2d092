// HTTP API - rewards catalog, redemptions, user profile
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "github.com/fabioluiz1/thanx-take-home/internal/api"
	db "github.com/fabioluiz1/thanx-take-home/internal/db"
	interf "github.com/fabioluiz1/thanx-take-home/internal/interfaces"
	services "github.com/fabioluiz1/thanx-take-home/internal/services"
	otel "github.com/fabioluiz1/thanx-take-home/observability/otel"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func main() {
	// log
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// config
	port := os.Getenv("REWARDS_PORT")
	if port == "" {
		panic("env REWARDS_PORT is not set")
	}

	// tracing
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	shutdownTracer := otel.InitTracer(ctx)
	defer shutdownTracer()

	// database
	var storage interf.RewardsStorage
	dt, err := db.NewRewardsDB(logger)
	if err != nil {
		panic(err)
	}
	defer dt.Close()
	storage = dt

	// cache
	var cache interf.CacheStorage
	cache, err = db.NewCacheService()
	if err != nil {
		logger.Error(err.Error())
		cache = nil
	}

	// service + api handlers
	serv := services.NewRewardsService(logger, storage, cache)
	identity := api.DemoIdentity{Next: api.HeaderIdentity{}, DB: storage}
	handler := api.NewHandler(serv, identity, logger)

	srv := &http.Server{
		Handler:      otelhttp.NewHandler(handler, "rewards-api"),
		Addr:         ":" + port,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}
	go func() {
		err := srv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()
	logger.Info("rewards api started", zap.String("port", port))

	// shutdown
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt
	timeout, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	err = srv.Shutdown(timeout)
	if err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}
