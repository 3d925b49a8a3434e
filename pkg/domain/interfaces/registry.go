package interfaces

import (
	"context"
	"io"

	"github.com/m-mizutani/bdifget/pkg/domain/model"
)

// RegistryClient queries the listing endpoint of the document registry
type RegistryClient interface {
	// FetchTotal returns the total hit count of the search
	FetchTotal(ctx context.Context, offset, pageSize int, spec model.SearchSpec) (int, error)

	// FetchPage returns one page of listing records
	FetchPage(ctx context.Context, offset, pageSize int, spec model.SearchSpec) (*model.PageResult, error)
}

// DocumentFetcher opens the content stream of a document. The size is -1
// when the server does not announce it.
type DocumentFetcher interface {
	OpenDocument(ctx context.Context, retrievalPath string) (io.ReadCloser, int64, error)
}

// PDFVerifier reports whether a local file is a structurally valid PDF
type PDFVerifier interface {
	Verify(path string) error
}
