package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/cwrk-planet/interview-room-service/config"
	"github.com/cwrk-planet/interview-room-service/internal/app"
	"github.com/cwrk-planet/interview-room-service/internal/postgres"
	"github.com/cwrk-planet/interview-room-service/internal/redis"
	"github.com/cwrk-planet/interview-room-service/internal/service"
	grpcx "github.com/cwrk-planet/interview-room-service/internal/transport/grpc"
	httpx "github.com/cwrk-planet/interview-room-service/internal/transport/http"
	"github.com/cwrk-planet/interview-room-service/internal/transport/ws"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	app.InitLogger(cfg.Logging, nil)
	slog.Info("starting interview-room-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- redis ---
	rdb, store, err := app.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	// --- postgres (опционально) ---
	var archive service.Archive
	if cfg.Postgres.DSN != "" {
		pool, err := postgres.NewPool(ctx, postgres.Config{
			DSN:             cfg.Postgres.DSN,
			MaxConns:        cfg.Postgres.MaxConns,
			ApplicationName: cfg.Logging.Service,
		})
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		defer pool.Close()
		archive = postgres.NewSessionArchive(pool)
	} else {
		slog.Info("session archive disabled: postgres.dsn is empty")
	}

	// --- WS Hub (он же получатель событий) ---
	hub := ws.NewHub()
	defer hub.CloseAll()

	// --- services ---
	roomSvc := service.NewRoomService(store, hub, app.Limits(cfg.Room))
	memberSvc := service.NewMemberService(store, hub)
	lifecycleSvc := service.NewLifecycleService(store, hub, archive)

	wsServer := ws.NewServer(hub, roomSvc, cfg.WS.PingPeriod)

	// --- HTTP ---
	handler := httpx.NewHandler(roomSvc, memberSvc, lifecycleSvc)
	health := func(r *http.Request) error { return redis.Ping(r.Context(), rdb) }
	router := httpx.NewRouter(handler, wsServer.HandleWS, health, cfg.HTTP.RequestTimeout)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	// --- gRPC ---
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(grpcx.UnaryServerInterceptor(cfg.HTTP.RequestTimeout)),
		grpc.ChainStreamInterceptor(grpcx.StreamServerInterceptor()),
	)
	healthSrv := grpcx.Register(grpcServer, grpcx.NewServer(roomSvc, memberSvc, lifecycleSvc))

	// --- run both servers ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			return err
		}
		slog.Info("grpc listen", "addr", cfg.GRPC.Addr)
		return grpcServer.Serve(lis)
	})

	// --- graceful shutdown ---
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		healthSrv.SetServingStatus(grpcx.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		hub.CloseAll()
		grpcServer.GracefulStop()
		return httpSrv.Shutdown(ctxShutdown)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server error", "err", err)
	}
	slog.Info("stopped")
}
