// cmd/chatclient/main.go
// Interactive chat client: connects, asks for a name until the server approves one, then chats on the terminal.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/erilali/framechat/internal/client"
	"github.com/erilali/framechat/internal/config"
	"github.com/erilali/framechat/internal/frame"
	"github.com/erilali/framechat/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "chatclient: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	envFile := flag.String("env", "", "env file with CHAT_* settings (default: ./.env when present)")
	url := flag.String("url", "", "ws:// URL of the server's /ws endpoint, instead of host and port")
	flag.Parse()

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}
	cfg, err := config.LoadClient(envFiles...)
	if err != nil {
		return err
	}

	logConfig, err := config.LoadLoggerConfig(cfg.LogConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading logger config: %v, using defaults\n", err)
	}
	logger.InitLogger(logConfig)
	clientLogger := logger.NewLogger("client")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := cfg.Address()
	if *url != "" {
		addr = *url
	}
	dial := func() (*client.Client, error) {
		return client.Dial(ctx, addr,
			client.WithHandshakeTimeout(cfg.HandshakeTimeout),
			client.WithLogger(clientLogger),
		)
	}
	chat, err := dial()
	if err != nil {
		return err
	}
	defer func() { chat.Close() }()

	input := bufio.NewScanner(os.Stdin)
	name := cfg.Name
	for {
		if name == "" {
			fmt.Print("Enter name> ")
			if !input.Scan() {
				return input.Err()
			}
			name = input.Text()
		}
		err := chat.Handshake(name)
		if err == nil {
			break
		}
		if !errors.Is(err, client.ErrNameRejected) && !errors.Is(err, frame.ErrFieldTooLong) {
			return err
		}
		fmt.Printf("Name %q is not available: %v\n", name, err)
		name = ""
		if errors.Is(err, client.ErrConnectionStale) {
			chat.Close()
			if chat, err = dial(); err != nil {
				return err
			}
		}
	}

	console := client.NewConsole(os.Stdout, chat.Name())
	lines := make(chan string)
	go func() {
		defer close(lines)
		for input.Scan() {
			select {
			case lines <- input.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	console.Prompt()
	err = chat.Run(ctx, lines, console.Display)
	fmt.Println()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
