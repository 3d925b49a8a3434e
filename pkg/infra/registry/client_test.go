package registry_test

import (
	"context"
	"io"
	"net/http"
	"slices"
	"testing"

	"github.com/m-mizutani/bdifget/pkg/domain/model"
	"github.com/m-mizutani/bdifget/pkg/domain/types"
	"github.com/m-mizutani/bdifget/pkg/infra/registry"
	"github.com/m-mizutani/bdifget/pkg/infra/registry/registrytest"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

func TestClient_FetchPage(t *testing.T) {
	ctx := context.Background()
	srv := registrytest.New(t,
		registrytest.WithRecords(
			model.ResultItem{Documents: []model.DocumentDescriptor{
				{FileName: "a.pdf", RetrievalPath: "x/a.pdf"},
				{FileName: "a.xlsx", RetrievalPath: "x/a.xlsx"},
			}},
			model.ResultItem{},
			model.ResultItem{Documents: []model.DocumentDescriptor{
				{FileName: "b.PDF", RetrievalPath: "x/b.PDF"},
			}},
		),
	)
	client := registry.NewClient(registry.WithBaseURL(srv.URL))

	page, err := client.FetchPage(ctx, 1, 2, model.SearchSpec{FreeText: "Ubisoft", PageSize: 2})
	gt.NoError(t, err).Required()

	gt.Number(t, page.TotalCount).Equal(3)
	gt.A(t, page.Items).Length(2)
	gt.A(t, page.Items[0].Documents).Length(0)
	gt.Equal(t, page.Items[1].Documents[0].FileName, "b.PDF")
	gt.Equal(t, page.Items[1].Documents[0].RetrievalPath, "x/b.PDF")

	queries := srv.Queries()
	gt.A(t, queries).Length(1)
	gt.Equal(t, queries[0].Get("From"), "1")
	gt.Equal(t, queries[0].Get("Size"), "2")
	gt.Equal(t, queries[0].Get("RechercheTexte"), "Ubisoft")
}

func TestClient_FetchTotal(t *testing.T) {
	srv := registrytest.New(t, registrytest.WithCatalog(3), registrytest.WithTotal(45))
	client := registry.NewClient(registry.WithBaseURL(srv.URL + "/"))

	total, err := client.FetchTotal(context.Background(), 0, 20, model.SearchSpec{PageSize: 20})
	gt.NoError(t, err)
	gt.Number(t, total).Equal(45)
	gt.Number(t, srv.ListingCalls()).Equal(1)
}

func TestClient_FetchPage_Errors(t *testing.T) {
	tests := []struct {
		name string
		opt  registrytest.Option
		tag  string
	}{
		{
			name: "server error is a transport failure",
			opt:  registrytest.WithListingStatus(http.StatusInternalServerError),
			tag:  types.ErrTagTransport.String(),
		},
		{
			name: "not found is a transport failure",
			opt:  registrytest.WithListingStatus(http.StatusNotFound),
			tag:  types.ErrTagTransport.String(),
		},
		{
			name: "malformed JSON is a protocol failure",
			opt:  registrytest.WithListingBody(`{"total": 3, "result": [`),
			tag:  types.ErrTagProtocol.String(),
		},
		{
			name: "missing total is a protocol failure",
			opt:  registrytest.WithListingBody(`{"result": []}`),
			tag:  types.ErrTagProtocol.String(),
		},
		{
			name: "non integer total is a protocol failure",
			opt:  registrytest.WithListingBody(`{"total": "many", "result": []}`),
			tag:  types.ErrTagProtocol.String(),
		},
		{
			name: "negative total is a protocol failure",
			opt:  registrytest.WithListingBody(`{"total": -1, "result": []}`),
			tag:  types.ErrTagProtocol.String(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := registrytest.New(t, tt.opt)
			client := registry.NewClient(registry.WithBaseURL(srv.URL))

			page, err := client.FetchPage(context.Background(), 0, 20, model.SearchSpec{PageSize: 20})
			gt.Error(t, err)
			gt.Value(t, page).Nil()
			gt.True(t, slices.Contains(goerr.Tags(err), tt.tag))

			_, err = client.FetchTotal(context.Background(), 0, 20, model.SearchSpec{PageSize: 20})
			gt.Error(t, err)
			gt.True(t, slices.Contains(goerr.Tags(err), tt.tag))
		})
	}
}

func TestClient_ConnectionRefused(t *testing.T) {
	srv := registrytest.New(t)
	baseURL := srv.URL
	srv.Close()

	client := registry.NewClient(registry.WithBaseURL(baseURL))
	_, err := client.FetchTotal(context.Background(), 0, 20, model.SearchSpec{PageSize: 20})
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, types.ErrTagTransport))
}

func TestClient_Headers(t *testing.T) {
	srv := registrytest.New(t, registrytest.WithCatalog(1))

	extra := http.Header{}
	extra.Set("user-agent", "bdifget-test")
	extra.Set("Cookie", "session=1")
	client := registry.NewClient(
		registry.WithBaseURL(srv.URL),
		registry.WithHeaders(extra),
	)

	_, err := client.FetchPage(context.Background(), 0, 20, model.SearchSpec{PageSize: 20})
	gt.NoError(t, err).Required()

	body, _, err := client.OpenDocument(context.Background(), "files/doc-000.pdf")
	gt.NoError(t, err).Required()
	_ = body.Close()

	headers := srv.Headers()
	gt.A(t, headers).Length(2)
	for _, h := range headers {
		gt.Equal(t, h.Get("User-Agent"), "bdifget-test")
		gt.Equal(t, h.Get("Cookie"), "session=1")
		gt.Equal(t, h.Get("Accept"), "application/json")
		gt.Equal(t, h.Get("Referer"), registry.DefaultReferer)
	}
}

func TestClient_OpenDocument(t *testing.T) {
	ctx := context.Background()
	srv := registrytest.New(t,
		registrytest.WithDocument("2024/report.pdf", []byte("%PDF-1.7 body")),
		registrytest.WithDocumentStatus("2024/gone.pdf", http.StatusGone),
	)
	client := registry.NewClient(registry.WithBaseURL(srv.URL))

	t.Run("streams content and size", func(t *testing.T) {
		body, size, err := client.OpenDocument(ctx, "2024/report.pdf")
		gt.NoError(t, err).Required()
		defer body.Close()

		data, err := io.ReadAll(body)
		gt.NoError(t, err)
		gt.Equal(t, string(data), "%PDF-1.7 body")
		gt.Number(t, size).Equal(int64(len("%PDF-1.7 body")))
	})

	t.Run("leading slash is tolerated", func(t *testing.T) {
		body, _, err := client.OpenDocument(ctx, "/2024/report.pdf")
		gt.NoError(t, err).Required()
		_ = body.Close()
	})

	t.Run("error status is a transport failure", func(t *testing.T) {
		body, _, err := client.OpenDocument(ctx, "2024/gone.pdf")
		gt.Error(t, err)
		gt.Value(t, body).Nil()
		gt.True(t, goerr.HasTag(err, types.ErrTagTransport))
	})

	t.Run("missing document is a transport failure", func(t *testing.T) {
		_, _, err := client.OpenDocument(ctx, "2024/nothing.pdf")
		gt.True(t, goerr.HasTag(err, types.ErrTagTransport))
	})
}
