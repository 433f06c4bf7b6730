package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/StoreStation/limbogate/pkg/protocol"
	"github.com/StoreStation/limbogate/pkg/server"
	"github.com/StoreStation/limbogate/pkg/world"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx, os.Args[1:]); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfg, err := server.ParseConfig(args)
	if err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))
	log := slog.Default()
	log.Info("limbogate starting", "world_dir", cfg.WorldDir, "listen", cfg.ListenAddress())

	reg, err := protocol.NewRegistry()
	if err != nil {
		return fmt.Errorf("loading packet registry: %w", err)
	}

	regCache, err := server.BuildRegistryCache(reg)
	if err != nil {
		return fmt.Errorf("building registry cache: %w", err)
	}

	blockStates, err := world.LoadBlockStates()
	if err != nil {
		return fmt.Errorf("loading block states: %w", err)
	}
	items, err := world.LoadItemRegistry()
	if err != nil {
		return fmt.Errorf("loading item registry: %w", err)
	}

	rawWorld, err := world.LoadWorld(cfg.WorldDir)
	if err != nil {
		return fmt.Errorf("loading world from %s: %w", cfg.WorldDir, err)
	}
	log.Info("world loaded", "chunks", len(rawWorld.Chunks))

	preprocessor := world.NewPreprocessor(blockStates, items, regCache.EndBiomeID)
	chunks, containers, err := preprocessor.Process(rawWorld)
	if err != nil {
		return fmt.Errorf("preprocessing world: %w", err)
	}
	log.Info("world preprocessed", "packets", len(chunks), "containers", len(containers))

	promReg := prometheus.NewRegistry()
	metrics := server.NewMetrics(promReg)

	state := server.NewState(cfg, reg, regCache, server.WorldCache{Chunks: chunks, Containers: containers}, metrics, log)

	acceptor, err := server.Listen(state)
	if err != nil {
		return fmt.Errorf("binding listener on %s: %w", cfg.ListenAddress(), err)
	}
	log.Info("listening", "addr", acceptor.Addr())

	tick := server.NewTick(state)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return acceptor.Run(gctx)
	})
	g.Go(func() error {
		return tick.Run(gctx)
	})
	g.Go(func() error {
		return server.ServeMetrics(gctx, cfg.MetricsAddr, promReg)
	})
	g.Go(func() error {
		return server.BroadcastLAN(gctx, cfg)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server run: %w", err)
	}
	log.Info("server stopped")
	return nil
}
