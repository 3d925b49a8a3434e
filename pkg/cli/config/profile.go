package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/bdifget/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Profile holds the path of a file with saved flag values
type Profile struct {
	Path string
}

// Flags returns CLI flags for profile configuration
func (c *Profile) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "profile",
			Usage:       "TOML or YAML file with flag values, keyed by flag name",
			Destination: &c.Path,
			Sources:     cli.EnvVars("BDIFGET_PROFILE"),
		},
	}
}

// Load reads the profile file. Keys are flag names; underscores are accepted
// in place of dashes.
func (c *Profile) Load() (map[string]any, error) {
	if c.Path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read profile",
			goerr.V("path", c.Path),
			goerr.T(types.ErrTagConfig),
		)
	}

	raw := map[string]any{}
	switch ext := strings.ToLower(filepath.Ext(c.Path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &raw)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		return nil, goerr.New("unsupported profile format, want .toml, .yaml or .yml",
			goerr.V("path", c.Path),
			goerr.T(types.ErrTagConfig),
		)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse profile",
			goerr.V("path", c.Path),
			goerr.T(types.ErrTagConfig),
		)
	}

	values := make(map[string]any, len(raw))
	for key, value := range raw {
		values[strings.ReplaceAll(key, "_", "-")] = value
	}
	return values, nil
}

// Apply sets every profile value whose flag was not given on the command
// line or through the environment. Keys may name flags of cmd or of any of
// its parent commands.
func (c *Profile) Apply(cmd *cli.Command) error {
	values, err := c.Load()
	if err != nil {
		return err
	}

	owners := map[string]*cli.Command{}
	for _, owner := range cmd.Lineage() {
		for _, f := range owner.Flags {
			for _, name := range f.Names() {
				if _, ok := owners[name]; !ok {
					owners[name] = owner
				}
			}
		}
	}

	for name, value := range values {
		owner, ok := owners[name]
		if !ok || name == "profile" {
			return goerr.New("unknown key in profile",
				goerr.V("key", name),
				goerr.V("path", c.Path),
				goerr.T(types.ErrTagConfig),
			)
		}
		if cmd.IsSet(name) || owner.IsSet(name) {
			continue
		}

		items, ok := value.([]any)
		if !ok {
			items = []any{value}
		}
		for _, item := range items {
			if err := owner.Set(name, fmt.Sprint(item)); err != nil {
				return goerr.Wrap(err, "invalid value in profile",
					goerr.V("key", name),
					goerr.V("value", item),
					goerr.T(types.ErrTagConfig),
				)
			}
		}
	}

	return nil
}
