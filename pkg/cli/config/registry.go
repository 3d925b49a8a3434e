package config

import (
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/bdifget/pkg/domain/types"
	"github.com/m-mizutani/bdifget/pkg/infra/registry"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Registry holds registry API configuration
type Registry struct {
	BaseURL     string
	UserAgent   string
	Referer     string
	Headers     []string
	HTTPTimeout time.Duration
}

// Flags returns CLI flags for registry API configuration
func (c *Registry) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "base-url",
			Usage:       "Registry API root",
			Value:       registry.DefaultBaseURL,
			Destination: &c.BaseURL,
			Sources:     cli.EnvVars("BDIFGET_BASE_URL"),
		},
		&cli.StringFlag{
			Name:        "user-agent",
			Usage:       "User-Agent header sent with every request",
			Value:       registry.DefaultUserAgent,
			Destination: &c.UserAgent,
			Sources:     cli.EnvVars("BDIFGET_USER_AGENT"),
		},
		&cli.StringFlag{
			Name:        "referer",
			Usage:       "Referer header sent with every request",
			Value:       registry.DefaultReferer,
			Destination: &c.Referer,
			Sources:     cli.EnvVars("BDIFGET_REFERER"),
		},
		&cli.StringSliceFlag{
			Name:        "header",
			Usage:       `Extra request header as "Name: value", can be repeated`,
			Destination: &c.Headers,
			Sources:     cli.EnvVars("BDIFGET_HEADER"),
		},
		&cli.DurationFlag{
			Name:        "http-timeout",
			Usage:       "Timeout of a single HTTP exchange, 0 for none",
			Destination: &c.HTTPTimeout,
			Sources:     cli.EnvVars("BDIFGET_HTTP_TIMEOUT"),
		},
	}
}

// Validate checks values that cannot be repaired
func (c *Registry) Validate() error {
	if c.HTTPTimeout < 0 {
		return goerr.New("http timeout must not be negative",
			goerr.V("http_timeout", c.HTTPTimeout),
			goerr.T(types.ErrTagConfig),
		)
	}
	_, err := c.header()
	return err
}

// Options converts the configuration into registry client options. One
// HTTP client is shared by every request so connections are reused.
func (c *Registry) Options() ([]registry.Option, error) {
	header, err := c.header()
	if err != nil {
		return nil, err
	}

	return []registry.Option{
		registry.WithBaseURL(c.BaseURL),
		registry.WithHTTPClient(&http.Client{Timeout: c.HTTPTimeout}),
		registry.WithHeaders(header),
	}, nil
}

func (c *Registry) header() (http.Header, error) {
	h := http.Header{}
	if c.UserAgent != "" {
		h.Set("User-Agent", c.UserAgent)
	}
	if c.Referer != "" {
		h.Set("Referer", c.Referer)
	}

	for _, line := range c.Headers {
		name, value, ok := strings.Cut(line, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, goerr.New(`header must be "Name: value"`,
				goerr.V("name", name),
				goerr.T(types.ErrTagConfig),
			)
		}
		h.Set(name, strings.TrimSpace(value))
	}

	return h, nil
}
