package registry_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/bdifget/pkg/domain/model"
	"github.com/m-mizutani/bdifget/pkg/infra/registry"
	"github.com/m-mizutani/gt"
)

func TestBuildParams(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 6, 23, 59, 59, 0, time.UTC)

	t.Run("only paging window when nothing else is set", func(t *testing.T) {
		params := registry.BuildParams(40, 20, model.SearchSpec{PageSize: 20})

		gt.Equal(t, params.Get("From"), "40")
		gt.Equal(t, params.Get("Size"), "20")
		gt.Number(t, len(params)).Equal(2)
		gt.False(t, params.Has("RechercheTexte"))
		gt.False(t, params.Has("Jetons"))
		gt.False(t, params.Has("DateDebut"))
		gt.False(t, params.Has("DateFin"))
	})

	t.Run("all optional parameters", func(t *testing.T) {
		spec := model.SearchSpec{
			FreeText:          "Ubisoft",
			StartDate:         &start,
			EndDate:           &end,
			ContinuationToken: "abc",
			PageSize:          20,
		}
		params := registry.BuildParams(0, 20, spec)

		gt.Equal(t, params.Get("From"), "0")
		gt.Equal(t, params.Get("RechercheTexte"), "Ubisoft")
		gt.Equal(t, params.Get("Jetons"), "abc")
		gt.Equal(t, params.Get("DateDebut"), "2025-01-01T00:00:00.000Z")
		gt.Equal(t, params.Get("DateFin"), "2026-02-06T23:59:59.000Z")
	})

	t.Run("dates are rendered in UTC", func(t *testing.T) {
		paris := time.FixedZone("CET", 3600)
		local := time.Date(2025, 1, 1, 1, 0, 0, 0, paris)
		params := registry.BuildParams(0, 20, model.SearchSpec{StartDate: &local})

		gt.Equal(t, params.Get("DateDebut"), "2025-01-01T00:00:00.000Z")
	})
}
