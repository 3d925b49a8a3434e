package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/m-mizutani/bdifget/pkg/cli/config"
	"github.com/m-mizutani/bdifget/pkg/domain/model"
	"github.com/m-mizutani/bdifget/pkg/infra/registry"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdTotal(output io.Writer, setup setupFunc) *cli.Command {
	var (
		searchCfg   config.Search
		registryCfg config.Registry
		profileCfg  config.Profile
	)

	var flags []cli.Flag
	flags = append(flags, searchCfg.Flags()...)
	flags = append(flags, registryCfg.Flags()...)
	flags = append(flags, profileCfg.Flags()...)

	return &cli.Command{
		Name:  "total",
		Usage: "Print the number of records matching the search without downloading",
		Flags: flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if err := profileCfg.Apply(c); err != nil {
				return nil, err
			}
			return setup(ctx)
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := searchCfg.Validate(); err != nil {
				return err
			}
			clientOpts, err := registryCfg.Options()
			if err != nil {
				return err
			}

			spec := searchCfg.Spec(ctx)
			total, err := registry.NewClient(clientOpts...).FetchTotal(ctx, 0, spec.PageSize, spec)
			if err != nil {
				return goerr.Wrap(err, "failed to fetch total count")
			}

			ctxlog.From(ctx).Debug("Total fetched",
				"total", total,
				"pages", model.TotalPages(total, spec.PageSize),
			)
			fmt.Fprintln(output, total)
			return nil
		},
	}
}
