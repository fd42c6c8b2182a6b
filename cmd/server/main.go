package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kreid06/pirate-game-4/internal/admin"
	"github.com/kreid06/pirate-game-4/internal/observability"
	"github.com/kreid06/pirate-game-4/internal/sim/physics"
	"github.com/kreid06/pirate-game-4/internal/transport"
	"golang.org/x/sync/errgroup"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := observability.NewLogger()
	observability.InitMetrics()

	gamePort := envOr("GAME_PORT", "9000")   // UDP binary skin
	wsPort := envOr("WS_PORT", "8080")       // WebSocket JSON skin
	adminPort := envOr("ADMIN_PORT", "8081") // read-only admin/debug HTTP

	wind := physics.Wind{}
	world := transport.DefaultWorld()

	gameServer := transport.NewServer(world, wind, logger)
	adminServer := admin.NewServer(gameServer.Session(), wind, logger)
	gameServer.SetRecorder(adminServer.Messages())

	binaryServer, err := transport.NewBinaryServer(fmt.Sprintf(":%s", gamePort), gameServer, logger)
	if err != nil {
		logger.Error(err, "failed to bind UDP game port")
		os.Exit(1)
	}

	wsMux := http.NewServeMux()
	wsMux.HandleFunc("/ws", gameServer.HandleWS)
	wsMux.HandleFunc("/healthz", transport.HealthzHandler)
	wsMux.HandleFunc("/metrics", observability.MetricsHandler)
	wsHTTPServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", wsPort),
		Handler: wsMux,
	}

	adminHTTPServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", adminPort),
		Handler: adminServer.Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gameServer.Run()
	binaryServer.Run()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("websocket server listening", "addr", wsHTTPServer.Addr)
		if err := wsHTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("websocket server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		logger.Info("admin server listening", "addr", adminHTTPServer.Addr)
		if err := adminHTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("admin server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		logger.Info("udp game server listening", "addr", binaryServer.LocalAddr().String())
		<-groupCtx.Done()
		return nil
	})

	const idleReapInterval = 5 * time.Second
	const sessionIdleTimeout = 30 * time.Second
	group.Go(func() error {
		ticker := time.NewTicker(idleReapInterval)
		defer ticker.Stop()
		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-ticker.C:
				if reaped := gameServer.Session().Registry().ReapIdle(time.Now(), sessionIdleTimeout); len(reaped) > 0 {
					logger.Info("reaped idle sessions", "count", len(reaped))
				}
			}
		}
	})

	const gcMonitorInterval = 10 * time.Second
	observability.StartGCMonitor(groupCtx, gcMonitorInterval, logger)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	gameServer.Stop()
	_ = binaryServer.Close()
	_ = wsHTTPServer.Shutdown(shutdownCtx)
	_ = adminHTTPServer.Shutdown(shutdownCtx)

	if err := group.Wait(); err != nil {
		logger.Error(err, "server exited with error")
		os.Exit(1)
	}

	logger.Info("server exited")
}
