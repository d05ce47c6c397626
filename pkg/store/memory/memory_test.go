package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/hrdemo/company/pkg/models"
	"github.com/hrdemo/company/pkg/store"
	"github.com/hrdemo/company/pkg/store/memory"
	"github.com/hrdemo/company/pkg/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	suite.Run(t, &storetest.Suite{
		Tasks: func(t *testing.T) store.Repository[*models.Task] {
			return memory.NewRepository(memory.New(), models.TaskKind)
		},
		Employees: func(t *testing.T) store.Repository[*models.Employee] {
			return memory.NewRepository(memory.New(), models.EmployeeKind)
		},
	})
}

func TestSaveDoesNotAliasCaller(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository(memory.New(), models.JobKind)

	job := &models.Job{JobTitle: "dev", Tasks: []models.Ref{{ID: "t1"}}}
	saved, err := repo.Save(ctx, job)
	require.NoError(t, err)
	require.True(t, job.ID.IsZero(), "input is left untouched")

	saved.Tasks[0].ID = "changed"
	found, ok, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, models.ID("t1"), found.Tasks[0].ID)
}

func TestCollectionsAreSeparate(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	require.NoError(t, db.Migrate(ctx))

	tasks := memory.NewRepository(db, models.TaskKind)
	regions := memory.NewRepository(db, models.RegionKind)

	_, err := tasks.Save(ctx, &models.Task{Title: "a"})
	require.NoError(t, err)

	n, err := regions.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestFindAllHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	repo := memory.NewRepository(memory.New(), models.TaskKind)
	for i := 0; i < 3; i++ {
		_, err := repo.Save(ctx, &models.Task{Title: "t"})
		require.NoError(t, err)
	}

	seq := repo.FindAll(ctx, nil)
	cancel()
	_, err := store.Collect(seq)
	require.ErrorIs(t, err, context.Canceled)
}
