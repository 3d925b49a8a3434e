package registry

import (
	"net/url"
	"strconv"
	"time"

	"github.com/m-mizutani/bdifget/pkg/domain/model"
)

// APITimeFormat is the absolute timestamp layout the listing endpoint expects
const APITimeFormat = "2006-01-02T15:04:05.000Z"

// Query parameter names of the listing endpoint
const (
	ParamFrom      = "From"
	ParamSize      = "Size"
	ParamToken     = "Jetons"
	ParamText      = "RechercheTexte"
	ParamStartDate = "DateDebut"
	ParamEndDate   = "DateFin"
)

// BuildParams converts a search into listing query parameters. Optional
// parameters are left out entirely when absent.
func BuildParams(offset, pageSize int, spec model.SearchSpec) url.Values {
	params := url.Values{}
	params.Set(ParamFrom, strconv.Itoa(offset))
	params.Set(ParamSize, strconv.Itoa(pageSize))

	if spec.ContinuationToken != "" {
		params.Set(ParamToken, spec.ContinuationToken)
	}
	if spec.FreeText != "" {
		params.Set(ParamText, spec.FreeText)
	}
	if spec.StartDate != nil {
		params.Set(ParamStartDate, FormatTime(*spec.StartDate))
	}
	if spec.EndDate != nil {
		params.Set(ParamEndDate, FormatTime(*spec.EndDate))
	}

	return params
}

// FormatTime renders t in UTC using APITimeFormat
func FormatTime(t time.Time) string {
	return t.UTC().Format(APITimeFormat)
}
