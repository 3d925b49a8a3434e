package usecase

import (
	"strings"

	"github.com/m-mizutani/bdifget/pkg/domain/model"
)

// PDFExtension is the file name suffix of documents worth downloading
const PDFExtension = ".pdf"

// ExtractPDFDocuments flattens every attachment of a page and keeps the PDF
// ones, matching the extension case-insensitively. Listing order is kept.
func ExtractPDFDocuments(page *model.PageResult) []model.DocumentDescriptor {
	if page == nil {
		return nil
	}

	var docs []model.DocumentDescriptor
	for _, item := range page.Items {
		for _, doc := range item.Documents {
			if strings.HasSuffix(strings.ToLower(doc.FileName), PDFExtension) {
				docs = append(docs, doc)
			}
		}
	}

	return docs
}
