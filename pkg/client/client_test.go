package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrdemo/company/pkg/client"
	"github.com/hrdemo/company/pkg/models"
	"github.com/hrdemo/company/pkg/responder"
)

func newServer(t *testing.T, h http.HandlerFunc) *client.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return client.NewClient(srv.URL).WithHTTPClient(srv.Client())
}

func TestAPIError(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", responder.ContentTypeJSON)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"a new task cannot already have an ID","errorKey":"idexists","entityName":"task","status":400}`))
	})

	_, err := client.For(c, models.TaskKind).Create(context.Background(), &models.Task{ID: "t1"})
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, &client.APIError{
		Status:     http.StatusBadRequest,
		Message:    "a new task cannot already have an ID",
		ErrorKey:   "idexists",
		EntityName: "task",
	}, apiErr)
	assert.Equal(t, http.StatusBadRequest, client.StatusOf(err))
}

func TestAPIErrorWithoutBody(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	err := client.For(c, models.TaskKind).Delete(context.Background(), "t1")
	assert.Equal(t, http.StatusBadGateway, client.StatusOf(err))
	assert.EqualError(t, err, "API error: status=502")
	assert.Zero(t, client.StatusOf(nil))
}

func TestPageHeaders(t *testing.T) {
	var got *http.Request
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set(responder.HeaderTotalCount, "41")
		w.Header().Set(responder.HeaderLink, `</api/jobs?page=1&size=20>; rel="next"`)
		_, _ = w.Write([]byte(`[{"id":"j1","jobTitle":"Clerk"}]`))
	})

	page, err := client.For(c, models.JobKind).SearchPage(context.Background(), "clerk", client.PageRequest{Size: 20, Sort: []string{"jobTitle,desc"}})
	require.NoError(t, err)
	assert.EqualValues(t, 41, page.Total)
	assert.Contains(t, page.Links, `rel="next"`)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Clerk", page.Items[0].JobTitle)

	assert.Equal(t, "/api/_search/jobs", got.URL.Path)
	assert.Equal(t, "clerk", got.URL.Query().Get("query"))
	assert.Equal(t, "0", got.URL.Query().Get("page"))
	assert.Equal(t, []string{"jobTitle,desc"}, got.URL.Query()["sort"])
}

func TestStreamDecodesLines(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, responder.ContentTypeStream, r.Header.Get("Accept"))
		w.Header().Set("Content-Type", responder.ContentTypeStream)
		_, _ = w.Write([]byte("{\"id\":\"r1\",\"regionName\":\"Europe\"}\n{\"id\":\"r2\",\"regionName\":\"Asia\"}\n"))
	})

	var names []string
	for r, err := range client.For(c, models.RegionKind).Stream(context.Background()) {
		require.NoError(t, err)
		names = append(names, r.RegionName)
	}
	assert.Equal(t, []string{"Europe", "Asia"}, names)
}

func TestStreamReportsGarbage(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{\"id\":\"r1\"}\nnot json\n"))
	})

	var errs []error
	n := 0
	for _, err := range client.For(c, models.RegionKind).Stream(context.Background()) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		n++
	}
	assert.Equal(t, 1, n)
	require.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], "failed to decode stream")
}
