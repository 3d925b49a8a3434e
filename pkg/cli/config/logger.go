package config

import (
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/bdifget/pkg/domain/types"
	"github.com/m-mizutani/clog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/masq"
	"github.com/urfave/cli/v3"
)

// headerSecret matches "Name: value" header strings that carry credentials
var headerSecret = regexp.MustCompile(`(?i)^\s*(authorization|cookie|x-api-key)\s*:`)

// Logger holds logger configuration
type Logger struct {
	Level string
	JSON  bool

	output io.Writer
}

// Flags returns CLI flags for logger configuration
func (c *Logger) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &c.Level,
			Sources:     cli.EnvVars("BDIFGET_LOG_LEVEL"),
		},
		&cli.BoolFlag{
			Name:        "log-json",
			Usage:       "Output logs in JSON format",
			Value:       false,
			Destination: &c.JSON,
			Sources:     cli.EnvVars("BDIFGET_LOG_JSON"),
		},
	}
}

// SetOutput changes where logs are written. Default is os.Stderr.
func (c *Logger) SetOutput(w io.Writer) {
	c.output = w
}

// Configure configures and returns a logger
func (c *Logger) Configure() (*slog.Logger, error) {
	var level slog.Level
	switch strings.ToLower(c.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, goerr.New("invalid log level",
			goerr.V("level", c.Level),
			goerr.T(types.ErrTagConfig),
		)
	}

	w := c.output
	if w == nil {
		w = os.Stderr
	}

	filter := masq.New(
		masq.WithFieldName("Authorization"),
		masq.WithFieldName("Cookie"),
		masq.WithFieldName("DSN"),
		masq.WithRegex(headerSecret),
	)

	var handler slog.Handler
	if c.JSON {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: filter,
		})
	} else {
		handler = clog.New(
			clog.WithWriter(w),
			clog.WithLevel(level),
			clog.WithColor(!color.NoColor),
			clog.WithReplaceAttr(filter),
		)
	}

	return slog.New(handler), nil
}
