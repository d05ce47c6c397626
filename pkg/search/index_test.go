package search_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrdemo/company/pkg/models"
	"github.com/hrdemo/company/pkg/search"
	"github.com/hrdemo/company/pkg/search/memindex"
	"github.com/hrdemo/company/pkg/store"
)

// brokenBackend fails every call.
type brokenBackend struct{ search.Backend }

var errDown = errors.New("connection refused")

func (brokenBackend) Put(context.Context, string, search.Document) error { return errDown }
func (brokenBackend) Delete(context.Context, string, models.ID) error    { return errDown }
func (brokenBackend) Search(context.Context, string, search.Query, int, int) ([]search.Hit, error) {
	return nil, errDown
}
func (brokenBackend) Count(context.Context, string) (int64, error) { return 0, errDown }

func TestIndexRoundTrip(t *testing.T) {
	ctx := context.Background()
	idx := search.NewIndex(memindex.New(), models.JobKind)

	low, high := int64(100), int64(200)
	job := &models.Job{
		ID:        "j1",
		JobTitle:  "Backend Engineer",
		MinSalary: &low,
		MaxSalary: &high,
		Tasks:     []models.Ref{{ID: "t1"}, {ID: "t2"}},
	}
	require.NoError(t, idx.Save(ctx, job))
	require.NoError(t, idx.Save(ctx, &models.Job{ID: "j2", JobTitle: "Designer"}))

	found, err := store.Collect(idx.Search(ctx, "tasks.id:t2", nil))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, job, found[0])

	n, err := idx.CountMatches(ctx, "engineer OR designer")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	page := &store.Page{Number: 1, Size: 1}
	paged, err := store.Collect(idx.Search(ctx, "engineer OR designer", page))
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, models.ID("j2"), paged[0].ID)

	require.NoError(t, idx.DeleteByID(ctx, "j1"))
	found, err = store.Collect(idx.Search(ctx, "id:j1", nil))
	require.NoError(t, err)
	assert.Empty(t, found)

	total, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	require.NoError(t, idx.Clear(ctx))
	total, err = idx.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestIndexRejectsMalformedQuery(t *testing.T) {
	idx := search.NewIndex(brokenBackend{}, models.TaskKind)

	_, err := store.Collect(idx.Search(context.Background(), "(open", nil))
	verr, ok := models.AsValidationError(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, models.KeyQuery, verr.Key)
	assert.Equal(t, "task", verr.Entity)

	_, err = idx.CountMatches(context.Background(), "a AND")
	_, ok = models.AsValidationError(err)
	assert.True(t, ok)
}

func TestIndexFailuresAreTagged(t *testing.T) {
	ctx := context.Background()
	idx := search.NewIndex(brokenBackend{}, models.TaskKind)

	err := idx.Save(ctx, &models.Task{ID: "t1"})
	assert.ErrorIs(t, err, store.ErrIndexUnavailable)
	assert.ErrorIs(t, err, errDown)

	assert.ErrorIs(t, idx.DeleteByID(ctx, "t1"), store.ErrIndexUnavailable)

	_, err = store.Collect(idx.Search(ctx, "x", nil))
	assert.ErrorIs(t, err, store.ErrIndexUnavailable)

	_, err = idx.Count(ctx)
	assert.ErrorIs(t, err, store.ErrIndexUnavailable)
}
