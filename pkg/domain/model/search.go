package model

import (
	"time"
)

// SearchSpec describes one search against the listing endpoint. It is built
// once from configuration and not modified during a run.
type SearchSpec struct {
	FreeText          string     // RechercheTexte, omitted when empty
	StartDate         *time.Time // DateDebut, already normalized to UTC midnight
	EndDate           *time.Time // DateFin, already normalized to UTC end of day
	ContinuationToken string     // Jetons, passed through as-is
	PageSize          int
}

// PageResult is one page of the listing response
type PageResult struct {
	TotalCount int          `json:"total"`
	Items      []ResultItem `json:"result"`
}

// ResultItem is a listing record. It may carry zero or more attachments.
type ResultItem struct {
	Documents []DocumentDescriptor `json:"documents"`
}

// DocumentDescriptor identifies one downloadable file
type DocumentDescriptor struct {
	FileName      string `json:"nomFichier"`
	RetrievalPath string `json:"path"`
}

// TotalPages returns ceil(total / pageSize). A non-positive pageSize yields 0.
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
