package usecase

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/bdifget/pkg/domain/interfaces"
	"github.com/m-mizutani/bdifget/pkg/domain/model"
	"github.com/m-mizutani/bdifget/pkg/domain/types"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

const (
	// copyChunkSize is the read size used while streaming a document to disk
	copyChunkSize = 8 * 1024

	// tempPattern has a fixed length so a target name close to the file
	// system limit still gets a valid temporary name
	tempPattern = ".bdifget-*.part"
)

var _ interfaces.Downloader = (*Downloader)(nil)

// Downloader is the download executor. It turns every error into a Failed
// outcome so one broken document never stops a batch.
type Downloader struct {
	fetcher  interfaces.DocumentFetcher
	verifier interfaces.PDFVerifier
	reporter interfaces.ProgressReporter
}

// DownloaderOption is a functional option for Downloader
type DownloaderOption func(*Downloader)

// WithPDFVerifier validates existing files before skipping them and fresh
// files before keeping them
func WithPDFVerifier(verifier interfaces.PDFVerifier) DownloaderOption {
	return func(d *Downloader) {
		d.verifier = verifier
	}
}

// WithTransferProgress reports byte level progress of every transfer
func WithTransferProgress(reporter interfaces.ProgressReporter) DownloaderOption {
	return func(d *Downloader) {
		d.reporter = reporter
	}
}

// NewDownloader creates a new Downloader
func NewDownloader(fetcher interfaces.DocumentFetcher, opts ...DownloaderOption) *Downloader {
	d := &Downloader{fetcher: fetcher}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download stores doc as targetDir/doc.FileName
func (d *Downloader) Download(ctx context.Context, doc model.DocumentDescriptor, targetDir string, policy model.ExistsPolicy) model.DownloadOutcome {
	logger := ctxlog.From(ctx)

	outcome, err := d.download(ctx, doc, targetDir, policy)
	if err != nil {
		logger.Warn("Failed to download document",
			"file_name", doc.FileName,
			"retrieval_path", doc.RetrievalPath,
			"error", err,
		)
		return model.OutcomeFailed
	}

	logger.Debug("Document processed",
		"file_name", doc.FileName,
		"outcome", outcome.String(),
	)
	return outcome
}

func (d *Downloader) download(ctx context.Context, doc model.DocumentDescriptor, targetDir string, policy model.ExistsPolicy) (model.DownloadOutcome, error) {
	target, err := targetPath(targetDir, doc.FileName)
	if err != nil {
		return model.OutcomeFailed, err
	}

	if policy == model.ExistsPolicySkip && d.alreadyStored(ctx, target) {
		return model.OutcomeSkipped, nil
	}

	body, size, err := d.fetcher.OpenDocument(ctx, doc.RetrievalPath)
	if err != nil {
		return model.OutcomeFailed, goerr.Wrap(err, "failed to open document")
	}
	defer body.Close()

	if err := d.store(body, size, doc.FileName, target); err != nil {
		return model.OutcomeFailed, err
	}

	return model.OutcomeDownloaded, nil
}

// alreadyStored reports whether target can be kept under the skip policy
func (d *Downloader) alreadyStored(ctx context.Context, target string) bool {
	info, err := os.Stat(target)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}

	if d.verifier != nil {
		if err := d.verifier.Verify(target); err != nil {
			ctxlog.From(ctx).Info("Existing file is not a valid PDF, downloading again",
				"path", target,
				"error", err,
			)
			return false
		}
	}

	return true
}

// store streams body into a temporary file next to target and renames it
// into place, so target only ever holds complete content.
func (d *Downloader) store(body io.Reader, size int64, fileName, target string) error {
	tmp, err := os.CreateTemp(filepath.Dir(target), tempPattern)
	if err != nil {
		return goerr.Wrap(err, "failed to create temporary file",
			goerr.V("target", target),
			goerr.T(types.ErrTagFileSystem),
		)
	}
	tmpName := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	var w io.Writer = tmp
	if d.reporter != nil {
		tracker := d.reporter.StartTransfer(fileName, size)
		defer tracker.Close()
		w = io.MultiWriter(tmp, tracker)
	}

	written, err := copyChunks(w, body)
	if err != nil {
		_ = tmp.Close()
		return goerr.Wrap(err, "failed to stream document", goerr.V("target", target))
	}

	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return goerr.Wrap(err, "failed to set file mode",
			goerr.V("target", target),
			goerr.T(types.ErrTagFileSystem),
		)
	}
	if err := tmp.Close(); err != nil {
		return goerr.Wrap(err, "failed to close temporary file",
			goerr.V("target", target),
			goerr.T(types.ErrTagFileSystem),
		)
	}

	if size >= 0 && written != size {
		return goerr.New("size mismatch",
			goerr.V("target", target),
			goerr.V("expected", size),
			goerr.V("actual", written),
			goerr.T(types.ErrTagTransport),
		)
	}

	if d.verifier != nil {
		if err := d.verifier.Verify(tmpName); err != nil {
			return goerr.Wrap(err, "downloaded file is not a valid PDF",
				goerr.V("target", target),
				goerr.T(types.ErrTagProtocol),
			)
		}
	}

	if err := os.Rename(tmpName, target); err != nil {
		return goerr.Wrap(err, "failed to move file into place",
			goerr.V("target", target),
			goerr.T(types.ErrTagFileSystem),
		)
	}
	committed = true

	return nil
}

// copyChunks copies src to dst in fixed size chunks and tells read failures
// (transport) from write failures (file system) apart.
func copyChunks(dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, copyChunkSize)
	var written int64

	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			nw, writeErr := dst.Write(buf[:n])
			written += int64(nw)
			if writeErr == nil && nw != n {
				writeErr = io.ErrShortWrite
			}
			if writeErr != nil {
				return written, goerr.Wrap(writeErr, "write", goerr.T(types.ErrTagFileSystem))
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, goerr.Wrap(readErr, "read", goerr.T(types.ErrTagTransport))
		}
	}
}

// targetPath joins dir and fileName, refusing names that would leave dir
func targetPath(dir, fileName string) (string, error) {
	if fileName == "" || fileName == "." || fileName == ".." ||
		strings.ContainsAny(fileName, `/\`) || filepath.Base(fileName) != fileName {
		return "", goerr.New("invalid file name",
			goerr.V("file_name", fileName),
			goerr.T(types.ErrTagFileSystem),
		)
	}
	return filepath.Join(dir, fileName), nil
}
