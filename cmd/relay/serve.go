package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ZentaChain/chatrelay/pkg/api"
	"github.com/ZentaChain/chatrelay/pkg/config"
	"github.com/ZentaChain/chatrelay/pkg/log"
	"github.com/ZentaChain/chatrelay/pkg/network"
	"github.com/ZentaChain/chatrelay/pkg/registry"
)

func serveCmd() *cobra.Command {
	var (
		configFile string
		listen     string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the relay server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile, listen, logLevel)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "f", "", "path to the TOML config file")
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address, overrides Server.Address")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level, overrides Logging.Level")
	return cmd
}

func loadConfig(configFile, listen, logLevel string) (*config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		var err error
		if cfg, err = config.LoadFile(configFile); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	if listen != "" {
		cfg.Server.Address = listen
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.FixupAndValidate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// serve runs the relay and, when enabled, the status API until ctx is done
func serve(ctx context.Context, cfg *config.Config) error {
	logBackend, err := log.New(cfg.Logging.File, cfg.Logging.Level, cfg.Logging.Disable)
	if err != nil {
		return err
	}
	defer logBackend.Close()
	mainLog := logBackend.GetLogger("main")

	printBanner()

	relay := network.NewRelayServer(cfg, registry.New(), logBackend)
	if err := relay.Start(); err != nil {
		return fmt.Errorf("failed to start relay server: %w", err)
	}
	mainLog.Noticef("✓ Relay server listening on %s", relay.Addr())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		mainLog.Noticef("Shutting down gracefully...")
		return relay.Stop()
	})

	g.Go(func() error {
		relay.RunHeartbeat(gctx, cfg.Server.HeartbeatInterval.Duration)
		return nil
	})

	if cfg.API.Enable {
		apiServer := api.NewServer(relay, cfg.API, logBackend.GetLogger("api"))
		g.Go(func() error {
			return apiServer.Start(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		mainLog.Errorf("Exited with error: %v", err)
		return err
	}
	mainLog.Noticef("✓ Relay server stopped")
	return nil
}
