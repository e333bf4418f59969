// Package config gathers the server settings from flags, the environment
// and an optional .env file.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

const (
	DefaultAddr                = ":3000"
	DefaultAllowOrigins        = "http://localhost:5173"
	DefaultLogLevel            = "info"
	DefaultMatchmakingInterval = time.Second
)

type Config struct {
	Addr                string
	AllowOrigins        []string
	LogLevel            string
	LogPretty           bool
	MatchmakingInterval time.Duration
}

// LoadDotEnv copies the variables of the given .env files into the process
// environment without overriding what is already set. Missing files are fine.
func LoadDotEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	existing := []string{}
	for _, name := range filenames {
		if _, err := os.Stat(name); err == nil {
			existing = append(existing, name)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return errors.Wrap(godotenv.Load(existing...), "load .env")
}

func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "addr",
			Aliases: []string{"a"},
			Usage:   "listen address",
			Value:   DefaultAddr,
			EnvVars: []string{"DAMES_ADDR"},
		},
		&cli.StringFlag{
			Name:    "allow-origins",
			Usage:   "comma-separated CORS origins allowed to reach the api and websockets",
			Value:   DefaultAllowOrigins,
			EnvVars: []string{"DAMES_ALLOW_ORIGINS"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "trace, debug, info, warn or error",
			Value:   DefaultLogLevel,
			EnvVars: []string{"DAMES_LOG_LEVEL"},
		},
		&cli.BoolFlag{
			Name:    "log-pretty",
			Usage:   "human-readable console logs",
			EnvVars: []string{"DAMES_LOG_PRETTY"},
		},
		&cli.DurationFlag{
			Name:    "matchmaking-interval",
			Usage:   "how often queued players are paired",
			Value:   DefaultMatchmakingInterval,
			EnvVars: []string{"DAMES_MATCHMAKING_INTERVAL"},
		},
	}
}

// FromContext builds a Config from parsed flags.
func FromContext(cCtx *cli.Context) (Config, error) {
	cfg := Config{
		Addr:                cCtx.String("addr"),
		AllowOrigins:        splitList(cCtx.String("allow-origins")),
		LogLevel:            cCtx.String("log-level"),
		LogPretty:           cCtx.Bool("log-pretty"),
		MatchmakingInterval: cCtx.Duration("matchmaking-interval"),
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("listen address is required")
	}
	if len(c.AllowOrigins) == 0 {
		return errors.New("at least one allowed origin is required")
	}
	if c.MatchmakingInterval <= 0 {
		return errors.Errorf("matchmaking interval must be positive, got %s", c.MatchmakingInterval)
	}
	return nil
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
