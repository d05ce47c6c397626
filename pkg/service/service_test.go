package service_test

import (
	"bytes"
	"context"
	"errors"
	"iter"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrdemo/company/pkg/models"
	"github.com/hrdemo/company/pkg/search"
	"github.com/hrdemo/company/pkg/search/memindex"
	"github.com/hrdemo/company/pkg/service"
	"github.com/hrdemo/company/pkg/store"
	"github.com/hrdemo/company/pkg/store/memory"
)

var errDown = errors.New("connection refused")

// faultyRepo fails writes on demand.
type faultyRepo[E models.Entity] struct {
	store.Repository[E]
	failSave, failDelete, failRead bool
}

func (r *faultyRepo[E]) Save(ctx context.Context, e E) (E, error) {
	if r.failSave {
		var zero E
		return zero, store.StoreError("save", errDown)
	}
	return r.Repository.Save(ctx, e)
}

func (r *faultyRepo[E]) DeleteByID(ctx context.Context, id models.ID) error {
	if r.failDelete {
		return store.StoreError("delete", errDown)
	}
	return r.Repository.DeleteByID(ctx, id)
}

func (r *faultyRepo[E]) FindAll(ctx context.Context, page *store.Page) iter.Seq2[E, error] {
	if r.failRead {
		return store.Failed[E](store.StoreError("find all", errDown))
	}
	return r.Repository.FindAll(ctx, page)
}

// faultyIndex counts writes and fails them on demand.
type faultyIndex[E models.Entity] struct {
	*search.Index[E]
	failSave, failDelete bool
	failIDs              map[models.ID]bool
	saves, deletes       int
}

func (x *faultyIndex[E]) Save(ctx context.Context, e E) error {
	x.saves++
	if x.failSave || x.failIDs[e.GetID()] {
		return store.IndexError("save", errDown)
	}
	return x.Index.Save(ctx, e)
}

func (x *faultyIndex[E]) DeleteByID(ctx context.Context, id models.ID) error {
	x.deletes++
	if x.failDelete {
		return store.IndexError("delete", errDown)
	}
	return x.Index.DeleteByID(ctx, id)
}

type fixture[E models.Entity] struct {
	svc   *service.Service[E]
	repo  *faultyRepo[E]
	index *faultyIndex[E]
}

func newFixture[E models.Entity](t *testing.T, desc models.Descriptor[E], opts ...service.Option) *fixture[E] {
	t.Helper()
	repo := &faultyRepo[E]{Repository: memory.NewRepository(memory.New(), desc)}
	index := &faultyIndex[E]{Index: search.NewIndex(memindex.New(), desc)}
	return &fixture[E]{
		svc:   service.New(desc, repo, index, zerolog.Nop(), opts...),
		repo:  repo,
		index: index,
	}
}

func searchIDs[E models.Entity](t *testing.T, svc *service.Service[E], query string) []models.ID {
	t.Helper()
	items, err := store.Collect(svc.Search(context.Background(), query, nil))
	require.NoError(t, err)
	ids := []models.ID{}
	for _, item := range items {
		ids = append(ids, item.GetID())
	}
	return ids
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.TaskKind)

	saved, err := f.svc.Create(ctx, &models.Task{Title: "AAAAAAAAAA", Description: "BBBBBBBBBB"})
	require.NoError(t, err)
	require.False(t, saved.ID.IsZero())

	found, ok, err := f.svc.FindOne(ctx, saved.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, models.Equal(saved, found))
	assert.Equal(t, "AAAAAAAAAA", found.Title)

	assert.Equal(t, []models.ID{saved.ID}, searchIDs(t, f.svc, "id:"+saved.ID.String()))
}

func TestCreateRejectsIdentifier(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.TaskKind)

	_, err := f.svc.Create(ctx, &models.Task{ID: "existing", Title: "x"})
	verr, ok := models.AsValidationError(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, models.KeyIDExists, verr.Key)

	n, err := f.svc.CountAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, f.index.saves)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.TaskKind)

	t.Run("requires identifier", func(t *testing.T) {
		_, err := f.svc.Update(ctx, &models.Task{Title: "x"})
		verr, ok := models.AsValidationError(err)
		require.True(t, ok)
		assert.Equal(t, models.KeyIDNull, verr.Key)
	})

	t.Run("missing record", func(t *testing.T) {
		_, err := f.svc.Update(ctx, &models.Task{ID: "ghost", Title: "x"})
		assert.ErrorIs(t, err, store.ErrNotFound)
		_, ok, err := f.svc.FindOne(ctx, "ghost")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("replaces record and index entry", func(t *testing.T) {
		saved, err := f.svc.Create(ctx, &models.Task{Title: "before"})
		require.NoError(t, err)

		_, err = f.svc.Update(ctx, &models.Task{ID: saved.ID, Title: "after"})
		require.NoError(t, err)

		found, _, err := f.svc.FindOne(ctx, saved.ID)
		require.NoError(t, err)
		assert.Equal(t, "after", found.Title)
		assert.Empty(t, searchIDs(t, f.svc, "title:before"))
		assert.Equal(t, []models.ID{saved.ID}, searchIDs(t, f.svc, "title:after"))
	})
}

func TestValidationPrecedesStore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DepartmentKind)

	_, err := f.svc.Create(ctx, &models.Department{})
	verr, ok := models.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, models.KeyRequired, verr.Key)
	assert.Equal(t, "departmentName", verr.Field)

	n, err := f.svc.CountAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIndexFailureKeepsStoreWrite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.TaskKind)
	f.index.failSave = true

	saved, err := f.svc.Save(ctx, &models.Task{Title: "orphan"})
	require.ErrorIs(t, err, store.ErrIndexUnavailable)
	assert.NotErrorIs(t, err, store.ErrStoreUnavailable)
	require.NotNil(t, saved)
	require.False(t, saved.ID.IsZero())

	found, ok, err := f.svc.FindOne(ctx, saved.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "orphan", found.Title)

	storeCount, err := f.svc.CountAll(ctx)
	require.NoError(t, err)
	indexCount, err := f.svc.SearchCount(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, storeCount)
	assert.Zero(t, indexCount)
}

func TestStoreFailureSkipsIndex(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.TaskKind)
	f.repo.failSave = true

	saved, err := f.svc.Save(ctx, &models.Task{Title: "lost"})
	require.ErrorIs(t, err, store.ErrStoreUnavailable)
	assert.Nil(t, saved)
	assert.Zero(t, f.index.saves)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.TaskKind)

	saved, err := f.svc.Create(ctx, &models.Task{Title: "short lived"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, saved.ID))
	require.NoError(t, f.svc.Delete(ctx, saved.ID))
	require.NoError(t, f.svc.Delete(ctx, "never-existed"))

	_, ok, err := f.svc.FindOne(ctx, saved.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, searchIDs(t, f.svc, "id:"+saved.ID.String()))
}

func TestDeleteStoreFailureSkipsIndex(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.TaskKind)

	saved, err := f.svc.Create(ctx, &models.Task{Title: "sticky"})
	require.NoError(t, err)
	f.repo.failDelete = true

	err = f.svc.Delete(ctx, saved.ID)
	require.ErrorIs(t, err, store.ErrStoreUnavailable)
	assert.Zero(t, f.index.deletes)
	assert.Equal(t, []models.ID{saved.ID}, searchIDs(t, f.svc, "id:"+saved.ID.String()))
}

func TestDeleteIndexFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.TaskKind)

	saved, err := f.svc.Create(ctx, &models.Task{Title: "stale hit"})
	require.NoError(t, err)
	f.index.failDelete = true

	require.ErrorIs(t, f.svc.Delete(ctx, saved.ID), store.ErrIndexUnavailable)
	_, ok, err := f.svc.FindOne(ctx, saved.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCountGrows(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.RegionKind)

	before, err := f.svc.CountAll(ctx)
	require.NoError(t, err)
	for _, name := range []string{"EMEA", "APAC", "AMER"} {
		_, err := f.svc.Create(ctx, &models.Region{RegionName: name})
		require.NoError(t, err)
	}
	after, err := f.svc.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, before+3, after)

	matches, err := f.svc.SearchMatches(ctx, "emea OR apac")
	require.NoError(t, err)
	assert.EqualValues(t, 2, matches)
}

func TestFindAllPaged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.EmployeeKind)

	first, err := f.svc.Create(ctx, &models.Employee{FirstName: "A"})
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, &models.Employee{FirstName: "B"})
	require.NoError(t, err)

	page := &store.Page{Size: 20, Sort: []store.Order{{Field: "id", Desc: true}}}
	items, err := store.Collect(f.svc.FindAll(ctx, page))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].ID)
	assert.Equal(t, first.ID, items[1].ID)

	bad := &store.Page{Size: 20, Sort: []store.Order{{Field: "password"}}}
	_, err = store.Collect(f.svc.FindAll(ctx, bad))
	verr, ok := models.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, models.KeySort, verr.Key)
}

func TestFindAllLogsWhenIterated(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	repo := &faultyRepo[*models.Task]{Repository: memory.NewRepository(memory.New(), models.TaskKind), failRead: true}
	index := search.NewIndex(memindex.New(), models.TaskKind)
	svc := service.New(models.TaskKind, repo, index, zerolog.New(&buf))

	seq := svc.FindAll(ctx, nil)
	assert.Empty(t, buf.String())

	_, err := store.Collect(seq)
	require.ErrorIs(t, err, store.ErrStoreUnavailable)
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), `"op":"find_all"`)
	assert.Contains(t, buf.String(), errDown.Error())

	buf.Reset()
	_, err = store.Collect(svc.Search(ctx, "lastName:(hop", nil))
	require.Error(t, err)
	assert.Contains(t, buf.String(), `"op":"search"`)
}

func TestSearchDoesNotConsultStore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.TaskKind)

	saved, err := f.svc.Create(ctx, &models.Task{Title: "ghost"})
	require.NoError(t, err)
	require.NoError(t, f.repo.Repository.DeleteByID(ctx, saved.ID))

	assert.Equal(t, []models.ID{saved.ID}, searchIDs(t, f.svc, "ghost"))
}

func TestUserAuditFields(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, models.UserKind, service.WithClock(func() time.Time { return now }))

	saved, err := f.svc.Create(ctx, &models.User{Login: "JDoe", Email: "JDoe@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, "jdoe", saved.Login)
	assert.Equal(t, "jdoe@example.com", saved.Email)
	assert.Equal(t, models.SystemAccount, saved.CreatedBy)
	require.NotNil(t, saved.CreatedDate)
	assert.True(t, now.Equal(*saved.CreatedDate))

	now = now.Add(time.Hour)
	updated, err := f.svc.Update(ctx, saved)
	require.NoError(t, err)
	assert.True(t, now.Add(-time.Hour).Equal(*updated.CreatedDate))
	assert.True(t, now.Equal(*updated.LastModifiedDate))
}

func TestUserUpdateKeepsCreation(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, models.UserKind, service.WithClock(func() time.Time { return now }))

	key := "k1"
	saved, err := f.svc.Create(ctx, &models.User{Login: "jdoe", Email: "jdoe@example.com", ActivationKey: &key})
	require.NoError(t, err)

	now = now.Add(5 * 24 * time.Hour)
	updated, err := f.svc.Update(ctx, &models.User{ID: saved.ID, Login: "jdoe", Email: "jdoe@example.com", ActivationKey: &key})
	require.NoError(t, err)
	assert.Equal(t, models.SystemAccount, updated.CreatedBy)
	require.NotNil(t, updated.CreatedDate)
	assert.True(t, saved.CreatedDate.Equal(*updated.CreatedDate))
	assert.True(t, now.Equal(*updated.LastModifiedDate))

	stored, found, err := f.svc.FindOne(ctx, saved.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, saved.CreatedDate.Equal(*stored.CreatedDate))

	assert.Equal(t, 1, service.RemoveNotActivatedUsers(ctx, f.svc))
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.TaskKind)

	_, err := f.svc.Create(ctx, &models.Task{Title: "a"})
	require.NoError(t, err)
	f.index.failSave = true
	_, err = f.svc.Create(ctx, &models.Task{Title: "b"})
	require.ErrorIs(t, err, store.ErrIndexUnavailable)

	st := f.svc.Status(ctx)
	assert.Equal(t, service.SyncStatus{Kind: "task", Path: "tasks", Store: 2, Index: 1}, st)
	assert.False(t, st.InSync())
}

func TestReindex(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.TaskKind)

	var ids []models.ID
	for _, title := range []string{"a", "b", "c"} {
		saved, err := f.repo.Repository.Save(ctx, &models.Task{Title: title})
		require.NoError(t, err)
		ids = append(ids, saved.ID)
	}

	res, err := f.svc.Reindex(ctx)
	require.NoError(t, err)
	assert.Equal(t, service.ReindexResult{Kind: "task", Indexed: 3}, res)
	assert.True(t, f.svc.Status(ctx).InSync())

	f.index.failIDs = map[models.ID]bool{ids[1]: true}
	res, err = f.svc.Reindex(ctx)
	require.NoError(t, err)
	assert.Equal(t, service.ReindexResult{Kind: "task", Indexed: 2, Failed: 1}, res)

	f.repo.failRead = true
	_, err = f.svc.Reindex(ctx)
	assert.ErrorIs(t, err, store.ErrStoreUnavailable)
}
