// Package progress renders run, page and transfer progress on a terminal.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/m-mizutani/bdifget/pkg/domain/interfaces"
	"github.com/m-mizutani/bdifget/pkg/domain/model"
	"github.com/mattn/go-runewidth"
)

const prefix = "[bdifget]"

var _ interfaces.ProgressReporter = (*Reporter)(nil)

// Options configures the progress reporter.
type Options struct {
	// Output is where to write progress output.
	// Default: os.Stderr
	Output io.Writer

	// NameWidth is the display width reserved for file names.
	// Default: 40
	NameWidth int

	// UpdateInterval is how often a running transfer is redrawn.
	// Default: 200ms
	UpdateInterval time.Duration
}

// Reporter outputs human-readable progress information. Finish may be
// called from several workers at once.
type Reporter struct {
	opts Options

	mu         sync.Mutex
	page       int
	pages      int
	documents  int
	done       int
	downloaded int
	skipped    int
	failed     int
}

// NewReporter creates a new progress reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.NameWidth <= 0 {
		opts.NameWidth = 40
	}
	if opts.UpdateInterval == 0 {
		opts.UpdateInterval = 200 * time.Millisecond
	}

	return &Reporter{opts: opts}
}

// StartRun prints the run header
func (r *Reporter) StartRun(total, pages, workers int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pages = pages
	fmt.Fprintf(r.opts.Output, "%s Found %d documents | Pages: %d | Workers: %d\n",
		prefix, total, pages, workers)
}

// StartPage resets the per-page counters
func (r *Reporter) StartPage(index, pages, documents int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.page = index
	r.pages = pages
	r.documents = documents
	r.done, r.downloaded, r.skipped, r.failed = 0, 0, 0, 0

	if documents == 0 {
		fmt.Fprintf(r.opts.Output, "%s Page %d/%d: no PDF\n", prefix, index+1, pages)
		return
	}
	r.printPage()
}

// Finish counts one outcome of the current page
func (r *Reporter) Finish(outcome model.DownloadOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.done++
	switch outcome {
	case model.OutcomeDownloaded:
		r.downloaded++
	case model.OutcomeSkipped:
		r.skipped++
	default:
		r.failed++
	}
	r.printPage()
}

// EndPage terminates the page line
func (r *Reporter) EndPage(index int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.documents > 0 {
		fmt.Fprintln(r.opts.Output)
	}
}

// EndRun prints the final summary line
func (r *Reporter) EndRun(summary *model.RunSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.opts.Output, "%s %s\n", prefix, FormatSummary(summary))
}

// StartTransfer returns a writer that renders the byte progress of one
// file. size is -1 when unknown.
func (r *Reporter) StartTransfer(fileName string, size int64) io.WriteCloser {
	return &transfer{
		r:    r,
		name: FitName(fileName, r.opts.NameWidth),
		size: size,
	}
}

// printPage must be called with mu held
func (r *Reporter) printPage() {
	fmt.Fprintf(r.opts.Output, "\r%s Page %d/%d: %d/%d done (%d new, %d skipped, %d failed)    ",
		prefix, r.page+1, r.pages, r.done, r.documents, r.downloaded, r.skipped, r.failed)
}

type transfer struct {
	r       *Reporter
	name    string
	size    int64
	written int64
	last    time.Time
}

func (t *transfer) Write(p []byte) (int, error) {
	t.written += int64(len(p))

	now := time.Now()
	if now.Sub(t.last) >= t.r.opts.UpdateInterval {
		t.last = now
		t.print("")
	}
	return len(p), nil
}

func (t *transfer) Close() error {
	t.print("\n")
	return nil
}

func (t *transfer) print(end string) {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()

	total := "?"
	if t.size >= 0 {
		total = humanize.IBytes(uint64(t.size))
	}
	fmt.Fprintf(t.r.opts.Output, "\r  %s  %s / %s%s",
		t.name, humanize.IBytes(uint64(t.written)), total, end)
}

// FitName truncates or pads name to exactly width display cells
func FitName(name string, width int) string {
	if runewidth.StringWidth(name) > width {
		name = runewidth.Truncate(name, width, "…")
	}
	return runewidth.FillRight(name, width)
}

// FormatSummary renders a run summary as a single line. Skipped and failed
// counts appear only when non-zero.
func FormatSummary(summary *model.RunSummary) string {
	if summary == nil {
		return ""
	}

	parts := []string{color.GreenString("downloaded %d", summary.Downloaded)}
	if summary.Skipped > 0 {
		parts = append(parts, color.YellowString("skipped %d", summary.Skipped))
	}
	if summary.Failed > 0 {
		parts = append(parts, color.RedString("failed %d", summary.Failed))
	}
	parts = append(parts, fmt.Sprintf("elapsed %s", summary.Elapsed.Round(100*time.Millisecond)))

	return strings.Join(parts, "  ") + " -> " + summary.OutputDirectory
}
