package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/m-mizutani/bdifget/pkg/cli/config"
	"github.com/m-mizutani/bdifget/pkg/domain/types"
	"github.com/m-mizutani/ctxlog"
	"github.com/urfave/cli/v3"
)

// setupFunc configures logging and error reporting and returns the context
// carrying the logger
type setupFunc func(ctx context.Context) (context.Context, error)

type runConfig struct {
	output io.Writer
}

// Option is a functional option for Run
type Option func(*runConfig)

// WithOutput sets where progress, summaries and counts are written.
// Default is os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(c *runConfig) {
		c.output = w
	}
}

// Run runs the CLI application
func Run(ctx context.Context, args []string, opts ...Option) error {
	rc := runConfig{output: os.Stdout}
	for _, opt := range opts {
		opt(&rc)
	}

	var (
		loggerCfg config.Logger
		sentryCfg config.Sentry
		logger    *slog.Logger
		flush     = func() {}
	)

	// setup runs in the subcommand Before hook, after the profile has filled
	// unset flags, so profile values reach the logger and Sentry too
	setup := func(ctx context.Context) (context.Context, error) {
		var err error
		logger, err = loggerCfg.Configure()
		if err != nil {
			return nil, err
		}
		logger = logger.With("run_id", uuid.NewString())

		flush, err = sentryCfg.Configure()
		if err != nil {
			return nil, err
		}

		slog.SetDefault(logger)
		ctx = ctxlog.With(ctx, logger)
		return ctx, nil
	}

	app := &cli.Command{
		Name:    "bdifget",
		Usage:   "Search the AMF BDIF document registry and download PDF attachments",
		Version: types.Version,
		Flags:   append(loggerCfg.Flags(), sentryCfg.Flags()...),
		Commands: []*cli.Command{
			cmdDownload(rc.output, setup),
			cmdTotal(rc.output, setup),
		},
	}

	err := app.Run(ctx, args)
	if err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("CLI execution failed", slog.Any("error", err))
		if sentryCfg.Enabled() {
			sentry.CaptureException(err)
		}
	}
	flush()

	return err
}
