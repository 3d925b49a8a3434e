package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/m-mizutani/bdifget/pkg/domain/model"
	"github.com/m-mizutani/bdifget/pkg/domain/types"
	"github.com/m-mizutani/bdifget/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Download holds download configuration
type Download struct {
	Workers    int
	IfExists   string
	OutputDir  string
	OutputRoot string
	VerifyPDF  bool
}

// Flags returns CLI flags for download configuration
func (c *Download) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "workers",
			Aliases:     []string{"n"},
			Usage:       "Concurrent downloads per page; 1 shows byte progress",
			Value:       usecase.DefaultWorkers,
			Destination: &c.Workers,
			Sources:     cli.EnvVars("BDIFGET_WORKERS"),
		},
		&cli.StringFlag{
			Name:        "if-exists",
			Usage:       "What to do when the file is already present (skip, overwrite)",
			Value:       string(usecase.DefaultExistsPolicy),
			Destination: &c.IfExists,
			Sources:     cli.EnvVars("BDIFGET_IF_EXISTS"),
		},
		&cli.StringFlag{
			Name:        "output-dir",
			Aliases:     []string{"o"},
			Usage:       "Directory to store files in, overrides the dated directory name",
			Destination: &c.OutputDir,
			Sources:     cli.EnvVars("BDIFGET_OUTPUT_DIR"),
		},
		&cli.StringFlag{
			Name:        "output-root",
			Usage:       "Parent of the dated <YYYY-MM-DD>_<query> directory",
			Value:       ".",
			Destination: &c.OutputRoot,
			Sources:     cli.EnvVars("BDIFGET_OUTPUT_ROOT"),
		},
		&cli.BoolFlag{
			Name:        "verify-pdf",
			Usage:       "Validate files as PDF; invalid existing files are fetched again",
			Destination: &c.VerifyPDF,
			Sources:     cli.EnvVars("BDIFGET_VERIFY_PDF"),
		},
	}
}

// Validate checks values that cannot be repaired
func (c *Download) Validate() error {
	if c.Workers < 1 {
		return goerr.New("workers must be positive",
			goerr.V("workers", c.Workers),
			goerr.T(types.ErrTagConfig),
		)
	}
	if _, err := model.ParseExistsPolicy(c.IfExists); err != nil {
		return err
	}
	return nil
}

// Policy returns the parsed --if-exists value
func (c *Download) Policy() (model.ExistsPolicy, error) {
	return model.ParseExistsPolicy(c.IfExists)
}

// ResolveOutputDir returns --output-dir when given, otherwise
// <root>/<YYYY-MM-DD>_<query or "all"> for the local date of now.
func (c *Download) ResolveOutputDir(now time.Time, query string) string {
	if c.OutputDir != "" {
		return c.OutputDir
	}

	label := strings.TrimSpace(query)
	if label == "" {
		label = "all"
	}
	label = strings.NewReplacer("/", "_", `\`, "_").Replace(label)

	root := c.OutputRoot
	if root == "" {
		root = "."
	}
	return filepath.Join(root, now.Format("2006-01-02")+"_"+label)
}
