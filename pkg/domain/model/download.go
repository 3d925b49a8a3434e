package model

import (
	"strings"
	"time"

	"github.com/m-mizutani/bdifget/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// DownloadOutcome is the result of processing one DocumentDescriptor
type DownloadOutcome int

const (
	OutcomeFailed DownloadOutcome = iota
	OutcomeDownloaded
	OutcomeSkipped
)

func (o DownloadOutcome) String() string {
	switch o {
	case OutcomeDownloaded:
		return "downloaded"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// ExistsPolicy decides what happens when the target file is already on disk
type ExistsPolicy string

const (
	ExistsPolicySkip      ExistsPolicy = "skip"
	ExistsPolicyOverwrite ExistsPolicy = "overwrite"
)

// ParseExistsPolicy converts a configuration value into an ExistsPolicy
func ParseExistsPolicy(s string) (ExistsPolicy, error) {
	switch p := ExistsPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case ExistsPolicySkip, ExistsPolicyOverwrite:
		return p, nil
	default:
		return "", goerr.New("unknown exists policy, want skip or overwrite",
			goerr.V("value", s),
			goerr.T(types.ErrTagConfig),
		)
	}
}

// RunSummary aggregates outcomes over a whole run
type RunSummary struct {
	Downloaded      int
	Skipped         int
	Failed          int
	Elapsed         time.Duration
	OutputDirectory string
}

// Add counts one outcome
func (s *RunSummary) Add(outcome DownloadOutcome) {
	switch outcome {
	case OutcomeDownloaded:
		s.Downloaded++
	case OutcomeSkipped:
		s.Skipped++
	default:
		s.Failed++
	}
}

// Total returns the number of outcomes counted so far
func (s *RunSummary) Total() int {
	return s.Downloaded + s.Skipped + s.Failed
}
