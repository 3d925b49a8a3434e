package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/bdifget/pkg/cli/config"
	"github.com/m-mizutani/bdifget/pkg/infra/pdf"
	"github.com/m-mizutani/bdifget/pkg/infra/registry"
	"github.com/m-mizutani/bdifget/pkg/usecase"
	"github.com/m-mizutani/bdifget/pkg/utils/progress"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdDownload(output io.Writer, setup setupFunc) *cli.Command {
	var (
		searchCfg   config.Search
		downloadCfg config.Download
		registryCfg config.Registry
		profileCfg  config.Profile
	)

	var flags []cli.Flag
	flags = append(flags, searchCfg.Flags()...)
	flags = append(flags, downloadCfg.Flags()...)
	flags = append(flags, registryCfg.Flags()...)
	flags = append(flags, profileCfg.Flags()...)

	return &cli.Command{
		Name:    "download",
		Aliases: []string{"dl"},
		Usage:   "Download every PDF attached to the search results",
		Flags:   flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if err := profileCfg.Apply(c); err != nil {
				return nil, err
			}
			return setup(ctx)
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			for _, v := range []interface{ Validate() error }{&searchCfg, &downloadCfg, &registryCfg} {
				if err := v.Validate(); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := ctxlog.From(ctx)

			policy, err := downloadCfg.Policy()
			if err != nil {
				return err
			}
			clientOpts, err := registryCfg.Options()
			if err != nil {
				return err
			}
			client := registry.NewClient(clientOpts...)

			reporter := progress.NewReporter(progress.Options{Output: output})

			var dlOpts []usecase.DownloaderOption
			if downloadCfg.VerifyPDF {
				dlOpts = append(dlOpts, usecase.WithPDFVerifier(pdf.New()))
			}
			if downloadCfg.Workers == 1 {
				dlOpts = append(dlOpts, usecase.WithTransferProgress(reporter))
			}

			harvest := usecase.NewHarvest(client,
				usecase.NewDownloader(client, dlOpts...),
				usecase.WithWorkers(downloadCfg.Workers),
				usecase.WithExistsPolicy(policy),
				usecase.WithReporter(reporter),
			)

			spec := searchCfg.Spec(ctx)
			outputDir := downloadCfg.ResolveOutputDir(time.Now(), searchCfg.Query)
			logger.Debug("Starting download",
				"base_url", registryCfg.BaseURL,
				"output_dir", outputDir,
				"headers", registryCfg.Headers,
				"verify_pdf", downloadCfg.VerifyPDF,
			)

			summary, err := harvest.Run(ctx, spec, outputDir)
			if err != nil {
				if summary != nil {
					fmt.Fprintf(output, "aborted: %s\n", progress.FormatSummary(summary))
				}
				return goerr.Wrap(err, "download aborted")
			}

			return nil
		},
	}
}
