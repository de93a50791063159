// cmd/chatserver/main.go
// Chat server entry point: loads configuration, initializes the logger and serves until interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/erilali/framechat/internal/api"
	"github.com/erilali/framechat/internal/config"
	"github.com/erilali/framechat/internal/hub"
	"github.com/erilali/framechat/internal/logger"
)

// Version is reported by /health, set with -ldflags "-X main.Version=...".
var Version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "chatserver: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	envFile := flag.String("env", "", "env file with CHATSRV_* settings (default: ./.env when present)")
	port := flag.Int("port", 0, "TCP port to listen on, overrides CHATSRV_PORT")
	flag.Parse()

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}
	cfg, err := config.LoadServer(envFiles...)
	if err != nil {
		return err
	}
	if *port != 0 {
		cfg.Port = *port
		if err := config.Validate(cfg); err != nil {
			return err
		}
	}

	logConfig, err := config.LoadLoggerConfig(cfg.LogConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading logger config: %v, using defaults\n", err)
	}
	logger.InitLogger(logConfig)
	serverLogger := logger.NewLogger("server")
	serverLogger.WithFields(map[string]interface{}{
		"address":         cfg.Address(),
		"http_addr":       cfg.HTTPAddr,
		"nats_url":        cfg.NATSURL,
		"send_queue_size": cfg.SendQueueSize,
		"rejection_reply": cfg.RejectionReply,
		"version":         Version,
	}).Info("Server configuration")

	options := []hub.Option{
		hub.WithSendQueueSize(cfg.SendQueueSize),
		hub.WithWriteTimeout(cfg.WriteTimeout),
		hub.WithRejectionReply(cfg.RejectionReply),
	}
	var relay *hub.NATSRelay
	if cfg.NATSURL != "" {
		relay, err = hub.ConnectNATS(cfg.NATSURL, cfg.NATSSubject, logger.NewLogger("relay"))
		if err != nil {
			return err
		}
		defer relay.Close()
		options = append(options, hub.WithRelay(relay))
	}

	chat, err := hub.New(logger.NewLogger("hub"), options...)
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", cfg.Address())
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Address(), err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return chat.Serve(groupCtx, listener)
	})
	if cfg.HTTPAddr != "" {
		var status api.StatusReporter
		if relay != nil {
			status = relay
		}
		router := api.NewRouter(chat, status, Version, logger.NewLogger("api"))
		group.Go(func() error {
			return api.StartServer(groupCtx, cfg.HTTPAddr, router, logger.NewLogger("api"))
		})
	}
	serverLogger.Info("Chat server has started")

	err = group.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	serverLogger.Infof("Chat server stopped in %v", chat.Shutdown(shutdownTimeout))
	return err
}
