package interfaces

import (
	"context"
	"io"

	"github.com/m-mizutani/bdifget/pkg/domain/model"
)

// Downloader retrieves one document into a directory. It never fails: every
// error is folded into model.OutcomeFailed.
type Downloader interface {
	Download(ctx context.Context, doc model.DocumentDescriptor, targetDir string, policy model.ExistsPolicy) model.DownloadOutcome
}

// ProgressReporter receives run, page and transfer events. Implementations
// must be safe for concurrent use because outcomes arrive from workers.
type ProgressReporter interface {
	StartRun(total, pages, workers int)
	StartPage(index, pages, documents int)
	Finish(outcome model.DownloadOutcome)
	EndPage(index int)
	EndRun(summary *model.RunSummary)

	// StartTransfer returns a writer that counts transferred bytes. Close
	// is called when the transfer ends, successfully or not.
	StartTransfer(fileName string, size int64) io.WriteCloser
}

// HarvestUseCase runs a whole search-and-download job
type HarvestUseCase interface {
	// Run pages through the search and downloads every PDF attachment into
	// outputDir. The summary is returned even when err is not nil.
	Run(ctx context.Context, spec model.SearchSpec, outputDir string) (*model.RunSummary, error)
}
