package config

import (
	"context"

	"github.com/m-mizutani/bdifget/pkg/domain/model"
	"github.com/m-mizutani/bdifget/pkg/domain/types"
	"github.com/m-mizutani/bdifget/pkg/utils/dateutil"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// DefaultPageSize is the number of records requested per listing call
const DefaultPageSize = 20

// Search holds search configuration
type Search struct {
	Query             string
	StartDate         string
	EndDate           string
	PageSize          int
	ContinuationToken string
}

// Flags returns CLI flags for search configuration
func (c *Search) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "query",
			Aliases:     []string{"q"},
			Usage:       "Free text search (company name, keyword)",
			Destination: &c.Query,
			Sources:     cli.EnvVars("BDIFGET_QUERY"),
		},
		&cli.StringFlag{
			Name:        "start-date",
			Usage:       "Publication date lower bound (YYYY-MM-DD, YYYY/MM/DD or YYYYMMDD)",
			Destination: &c.StartDate,
			Sources:     cli.EnvVars("BDIFGET_START_DATE"),
		},
		&cli.StringFlag{
			Name:        "end-date",
			Usage:       "Publication date upper bound, inclusive (same formats as --start-date)",
			Destination: &c.EndDate,
			Sources:     cli.EnvVars("BDIFGET_END_DATE"),
		},
		&cli.IntFlag{
			Name:        "page-size",
			Usage:       "Records requested per listing call",
			Value:       DefaultPageSize,
			Destination: &c.PageSize,
			Sources:     cli.EnvVars("BDIFGET_PAGE_SIZE"),
		},
		&cli.StringFlag{
			Name:        "continuation-token",
			Usage:       "Opaque token passed to the API as-is",
			Destination: &c.ContinuationToken,
			Sources:     cli.EnvVars("BDIFGET_CONTINUATION_TOKEN"),
		},
	}
}

// Validate checks values that cannot be repaired
func (c *Search) Validate() error {
	if c.PageSize < 1 {
		return goerr.New("page size must be positive",
			goerr.V("page_size", c.PageSize),
			goerr.T(types.ErrTagConfig),
		)
	}
	return nil
}

// Spec builds the immutable search description. A malformed date is logged
// and treated as an absent bound.
func (c *Search) Spec(ctx context.Context) model.SearchSpec {
	logger := ctxlog.From(ctx)

	spec := model.SearchSpec{
		FreeText:          c.Query,
		StartDate:         dateutil.ParsePtr(c.StartDate, false),
		EndDate:           dateutil.ParsePtr(c.EndDate, true),
		ContinuationToken: c.ContinuationToken,
		PageSize:          c.PageSize,
	}

	if c.StartDate != "" && spec.StartDate == nil {
		logger.Warn("Ignoring malformed start date", "start_date", c.StartDate)
	}
	if c.EndDate != "" && spec.EndDate == nil {
		logger.Warn("Ignoring malformed end date", "end_date", c.EndDate)
	}

	return spec
}
