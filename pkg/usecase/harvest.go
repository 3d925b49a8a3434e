package usecase

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/m-mizutani/bdifget/pkg/domain/interfaces"
	"github.com/m-mizutani/bdifget/pkg/domain/model"
	"github.com/m-mizutani/bdifget/pkg/domain/types"
	"github.com/m-mizutani/bdifget/pkg/utils/async"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

const (
	DefaultWorkers      = 10
	DefaultExistsPolicy = model.ExistsPolicySkip
)

var _ interfaces.HarvestUseCase = (*Harvest)(nil)

// Harvest is the batch scheduler. Pages are processed strictly one after
// another; the documents of a page are spread over a bounded worker pool and
// all of them finish before the next page is fetched.
type Harvest struct {
	registry   interfaces.RegistryClient
	downloader interfaces.Downloader
	reporter   interfaces.ProgressReporter
	workers    int
	policy     model.ExistsPolicy
}

// HarvestOption is a functional option for Harvest
type HarvestOption func(*Harvest)

// WithWorkers sets the number of concurrent downloads within a page
func WithWorkers(n int) HarvestOption {
	return func(h *Harvest) {
		h.workers = n
	}
}

// WithExistsPolicy sets how already present files are handled
func WithExistsPolicy(policy model.ExistsPolicy) HarvestOption {
	return func(h *Harvest) {
		h.policy = policy
	}
}

// WithReporter receives run, page and outcome events
func WithReporter(reporter interfaces.ProgressReporter) HarvestOption {
	return func(h *Harvest) {
		h.reporter = reporter
	}
}

// NewHarvest creates a new Harvest
func NewHarvest(registry interfaces.RegistryClient, downloader interfaces.Downloader, opts ...HarvestOption) *Harvest {
	h := &Harvest{
		registry:   registry,
		downloader: downloader,
		reporter:   nopReporter{},
		workers:    DefaultWorkers,
		policy:     DefaultExistsPolicy,
	}

	for _, opt := range opts {
		opt(h)
	}

	if h.workers < 1 {
		h.workers = 1
	}

	return h
}

// Run executes the whole search. A listing failure aborts the run; the
// summary returned alongside the error holds the counts reached so far.
func (uc *Harvest) Run(ctx context.Context, spec model.SearchSpec, outputDir string) (*model.RunSummary, error) {
	logger := ctxlog.From(ctx)
	start := time.Now()

	summary := &model.RunSummary{OutputDirectory: outputDir}
	if abs, err := filepath.Abs(outputDir); err == nil {
		summary.OutputDirectory = abs
	}
	finish := func() *model.RunSummary {
		summary.Elapsed = time.Since(start)
		return summary
	}

	if spec.PageSize < 1 {
		return finish(), goerr.New("page size must be positive",
			goerr.V("page_size", spec.PageSize),
			goerr.T(types.ErrTagConfig),
		)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return finish(), goerr.Wrap(err, "failed to create output directory",
			goerr.V("output_dir", outputDir),
			goerr.T(types.ErrTagFileSystem),
		)
	}

	total, err := uc.registry.FetchTotal(ctx, 0, spec.PageSize, spec)
	if err != nil {
		return finish(), goerr.Wrap(err, "failed to fetch total count")
	}
	pages := model.TotalPages(total, spec.PageSize)

	logger.Info("Search started",
		"output_dir", summary.OutputDirectory,
		"total", total,
		"pages", pages,
		"workers", uc.workers,
		"if_exists", string(uc.policy),
	)
	uc.reporter.StartRun(total, pages, uc.workers)

	for pageIdx := range pages {
		if err := ctx.Err(); err != nil {
			return finish(), goerr.Wrap(err, "run interrupted", goerr.V("page", pageIdx))
		}

		if err := uc.processPage(ctx, spec, pageIdx, pages, outputDir, summary); err != nil {
			return finish(), err
		}
	}

	finish()
	uc.reporter.EndRun(summary)

	logger.Info("Run completed",
		"downloaded", summary.Downloaded,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"elapsed", summary.Elapsed.String(),
		"output_dir", summary.OutputDirectory,
	)

	return summary, nil
}

// processPage fetches one page and downloads its PDFs. It returns only after
// every submitted document has produced its outcome.
func (uc *Harvest) processPage(ctx context.Context, spec model.SearchSpec, pageIdx, pages int, outputDir string, summary *model.RunSummary) error {
	logger := ctxlog.From(ctx)
	offset := pageIdx * spec.PageSize

	page, err := uc.registry.FetchPage(ctx, offset, spec.PageSize, spec)
	if err != nil {
		return goerr.Wrap(err, "failed to fetch page",
			goerr.V("page", pageIdx),
			goerr.V("offset", offset),
		)
	}

	docs := ExtractPDFDocuments(page)
	uc.reporter.StartPage(pageIdx, pages, len(docs))
	defer uc.reporter.EndPage(pageIdx)

	if len(docs) == 0 {
		logger.Debug("No PDF document on page", "page", pageIdx)
		return nil
	}

	// Zero value is OutcomeFailed, so a task that panics still counts
	outcomes := make([]model.DownloadOutcome, len(docs))

	async.ForEach(ctx, uc.workers, docs, func(ctx context.Context, idx int, doc model.DocumentDescriptor) {
		defer func() { uc.reporter.Finish(outcomes[idx]) }()
		outcomes[idx] = uc.downloader.Download(ctx, doc, outputDir, uc.policy)
	})

	for _, outcome := range outcomes {
		summary.Add(outcome)
	}

	logger.Debug("Page completed",
		"page", pageIdx,
		"documents", len(docs),
		"downloaded", summary.Downloaded,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)

	return nil
}

type nopReporter struct{}

func (nopReporter) StartRun(int, int, int)                     {}
func (nopReporter) StartPage(int, int, int)                    {}
func (nopReporter) Finish(model.DownloadOutcome)               {}
func (nopReporter) EndPage(int)                                {}
func (nopReporter) EndRun(*model.RunSummary)                   {}
func (nopReporter) StartTransfer(string, int64) io.WriteCloser { return nopWriteCloser{} }

type nopWriteCloser struct{}

func (nopWriteCloser) Write(p []byte) (int, error) { return len(p), nil }
func (nopWriteCloser) Close() error                { return nil }
