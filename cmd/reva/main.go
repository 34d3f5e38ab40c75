package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"reva/internal/infra/config"
	ginserver "reva/internal/infra/http/gin"
	"reva/internal/infra/obs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dotenvErr := config.LoadDotEnv()
	cfg, err := config.Load()
	logger := obs.NewLogger(cfg.Env, cfg.LogLevel)
	if dotenvErr != nil {
		logger.Warn("dotenv load failed", "error", dotenvErr)
	}
	if err != nil {
		logger.Warn("using fallback configuration", "error", err)
	}

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application init failed", "error", err)
		os.Exit(1)
	}
	defer app.Close(context.Background())

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, app.metrics, app.health, app.handlers)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("outbox worker stopped", "error", err)
		}
	}()
	if app.consumer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := app.consumer.Run(ctx, app.topics); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("kafka consumer stopped", "error", err)
			}
		}()
	}

	var grpcServer *grpc.Server
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			logger.Error("failed to listen", "error", err, "addr", cfg.GRPCAddr)
			os.Exit(1)
		}
		grpcServer = grpc.NewServer()
		healthSrv := health.NewServer()
		healthpb.RegisterHealthServer(grpcServer, healthSrv)
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.health.WatchReadiness(ctx, healthSrv, 5*time.Second)
		}()
		go func() {
			logger.Info("grpc health server starting", "addr", cfg.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				logger.Error("grpc server failed", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
		if grpcServer != nil {
			logger.Info("shutting down grpc server")
			grpcServer.GracefulStop()
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "env", cfg.Env, "storage", cfg.StorageDriver)
	serveErr := server.ListenAndServe()
	stop()
	wg.Wait()
	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		logger.Error("http server failed", "error", serveErr)
		app.Close(context.Background())
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}
