// internal/config/config.go
// Server and client configuration: optional .env files, environment variables, validation.
package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	// ServerPrefix prefixes every server environment variable, e.g. CHATSRV_PORT.
	ServerPrefix = "CHATSRV"
	// ClientPrefix prefixes every client environment variable, e.g. CHAT_HOST.
	ClientPrefix = "CHAT"
)

var validate = validator.New()

// Server holds the chat server settings.
type Server struct {
	Host string `envconfig:"HOST" validate:"omitempty,hostname_rfc1123|ip"`
	Port int    `envconfig:"PORT" default:"20000" validate:"min=1,max=65535"`
	// HTTPAddr serves /health, /api/clients and /ws. Empty disables the admin surface.
	HTTPAddr string `envconfig:"HTTP_ADDR" validate:"omitempty,hostname_port"`
	// NATSURL enables the multi-node relay when set.
	NATSURL        string        `envconfig:"NATS_URL" validate:"omitempty,url"`
	NATSSubject    string        `envconfig:"NATS_SUBJECT" default:"framechat.broadcast" validate:"required"`
	SendQueueSize  int           `envconfig:"SEND_QUEUE_SIZE" default:"64" validate:"min=1,max=65536"`
	WriteTimeout   time.Duration `envconfig:"WRITE_TIMEOUT" default:"10s" validate:"min=0"`
	RejectionReply bool          `envconfig:"REJECTION_REPLY" default:"false"`
	LogConfigPath  string        `envconfig:"LOG_CONFIG" default:"logger_config.json"`
}

// Address is the TCP listen address.
func (s Server) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Client holds the chat client settings. Name may be empty, in which case
// the caller prompts for one.
type Client struct {
	Host             string        `envconfig:"HOST" default:"127.0.0.1" validate:"required"`
	Port             int           `envconfig:"PORT" default:"20000" validate:"min=1,max=65535"`
	Name             string        `envconfig:"NAME" validate:"omitempty,max=255,excludes=>"`
	HandshakeTimeout time.Duration `envconfig:"HANDSHAKE_TIMEOUT" default:"3s" validate:"min=0"`
	LogConfigPath    string        `envconfig:"LOG_CONFIG" default:"logger_config.json"`
}

// Address is the server address to dial.
func (c Client) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// LoadServer reads the server configuration. With no files the optional ./.env
// is loaded if present; explicitly named files must exist.
func LoadServer(envFiles ...string) (Server, error) {
	var cfg Server
	if err := load(ServerPrefix, &cfg, envFiles); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// LoadClient reads the client configuration, see LoadServer for env files.
func LoadClient(envFiles ...string) (Client, error) {
	var cfg Client
	if err := load(ClientPrefix, &cfg, envFiles); err != nil {
		return Client{}, err
	}
	return cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg interface{}) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config: invalid: %w", err)
	}
	return nil
}

func load(prefix string, cfg interface{}, envFiles []string) error {
	if len(envFiles) == 0 {
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFiles...); err != nil {
		return fmt.Errorf("config: load env files: %w", err)
	}
	if err := envconfig.Process(prefix, cfg); err != nil {
		return fmt.Errorf("config: process environment: %w", err)
	}
	return Validate(cfg)
}
