// Package storetest holds the behaviour every store backend must share,
// written once as a testify suite and run by each backend's tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/hrdemo/company/pkg/models"
	"github.com/hrdemo/company/pkg/store"
)

// Suite is run by every store backend package with its own constructor.
type Suite struct {
	suite.Suite

	// Tasks and Employees return empty repositories for each test.
	Tasks     func(t *testing.T) store.Repository[*models.Task]
	Employees func(t *testing.T) store.Repository[*models.Employee]

	ctx   context.Context
	tasks store.Repository[*models.Task]
}

func (s *Suite) SetupTest() {
	s.ctx = context.Background()
	s.tasks = s.Tasks(s.T())
}

func (s *Suite) save(title string) *models.Task {
	saved, err := s.tasks.Save(s.ctx, &models.Task{Title: title, Description: title + " description"})
	s.Require().NoError(err)
	return saved
}

func (s *Suite) TestSaveAssignsID() {
	saved, err := s.tasks.Save(s.ctx, &models.Task{Title: "A", Description: "B"})
	s.Require().NoError(err)
	s.Require().False(saved.ID.IsZero())

	found, ok, err := s.tasks.FindByID(s.ctx, saved.ID)
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal(saved.ID, found.ID)
	s.Equal("A", found.Title)
	s.Equal("B", found.Description)
	s.True(models.Equal(saved, found))
}

func (s *Suite) TestFindByIDMissing() {
	_, ok, err := s.tasks.FindByID(s.ctx, "does-not-exist")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *Suite) TestSaveReplacesExisting() {
	saved := s.save("before")
	saved.Title = "after"
	saved.Description = ""

	updated, err := s.tasks.Save(s.ctx, saved)
	s.Require().NoError(err)
	s.Equal(saved.ID, updated.ID)

	found, ok, err := s.tasks.FindByID(s.ctx, saved.ID)
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal("after", found.Title)
	s.Empty(found.Description)

	count, err := s.tasks.Count(s.ctx)
	s.Require().NoError(err)
	s.EqualValues(1, count)
}

func (s *Suite) TestDeleteIsIdempotent() {
	saved := s.save("gone")

	s.Require().NoError(s.tasks.DeleteByID(s.ctx, saved.ID))
	s.Require().NoError(s.tasks.DeleteByID(s.ctx, saved.ID))

	_, ok, err := s.tasks.FindByID(s.ctx, saved.ID)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *Suite) TestCountGrowsWithSaves() {
	before, err := s.tasks.Count(s.ctx)
	s.Require().NoError(err)

	for _, title := range []string{"one", "two", "three"} {
		s.save(title)
	}

	after, err := s.tasks.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(before+3, after)
}

func (s *Suite) TestFindAllSortedByIDDesc() {
	first := s.save("first")
	second := s.save("second")

	page := &store.Page{Size: 10, Sort: []store.Order{{Field: "id", Desc: true}}}
	items, err := store.Collect(s.tasks.FindAll(s.ctx, page))
	s.Require().NoError(err)
	s.Require().Len(items, 2)
	s.Equal(second.ID, items[0].ID)
	s.Equal(first.ID, items[1].ID)
}

func (s *Suite) TestFindAllUnpaged() {
	want := map[models.ID]bool{}
	for _, title := range []string{"a", "b", "c", "d", "e"} {
		want[s.save(title).ID] = true
	}

	items, err := store.Collect(s.tasks.FindAll(s.ctx, nil))
	s.Require().NoError(err)
	s.Require().Len(items, len(want))
	for _, item := range items {
		s.True(want[item.ID], "unexpected id %s", item.ID)
	}
}

func (s *Suite) TestFindAllStopsEarly() {
	for _, title := range []string{"a", "b", "c"} {
		s.save(title)
	}

	seen := 0
	for _, err := range s.tasks.FindAll(s.ctx, nil) {
		s.Require().NoError(err)
		seen++
		if seen == 2 {
			break
		}
	}
	s.Equal(2, seen)
}

func (s *Suite) TestFindAllPages() {
	for _, title := range []string{"c", "a", "e", "b", "d"} {
		s.save(title)
	}

	titles := func(p store.Page) []string {
		items, err := store.Collect(s.tasks.FindAll(s.ctx, &p))
		s.Require().NoError(err)
		out := make([]string, len(items))
		for i, item := range items {
			out[i] = item.Title
		}
		return out
	}

	byTitle := []store.Order{{Field: "title"}}
	s.Equal([]string{"a", "b"}, titles(store.Page{Number: 0, Size: 2, Sort: byTitle}))
	s.Equal([]string{"c", "d"}, titles(store.Page{Number: 1, Size: 2, Sort: byTitle}))
	s.Equal([]string{"e"}, titles(store.Page{Number: 2, Size: 2, Sort: byTitle}))
	s.Empty(titles(store.Page{Number: 3, Size: 2, Sort: byTitle}))
}

func (s *Suite) TestEmployeeFieldsRoundTrip() {
	if s.Employees == nil {
		s.T().Skip("no employee repository")
	}
	employees := s.Employees(s.T())

	hired := time.Date(2023, 3, 14, 9, 26, 53, 589000000, time.UTC)
	low, high := int64(1200), int64(98000)
	pct := int64(5)

	_, err := employees.Save(s.ctx, &models.Employee{FirstName: "Ann", Salary: &high})
	s.Require().NoError(err)
	saved, err := employees.Save(s.ctx, &models.Employee{
		FirstName:     "Bob",
		Email:         "bob@example.com",
		HireDate:      &hired,
		Salary:        &low,
		CommissionPct: &pct,
		Department:    models.RefTo("dep1"),
	})
	s.Require().NoError(err)

	found, ok, err := employees.FindByID(s.ctx, saved.ID)
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Require().NotNil(found.HireDate)
	s.True(hired.Equal(*found.HireDate))
	s.Equal(low, *found.Salary)
	s.Equal(pct, *found.CommissionPct)
	s.Require().NotNil(found.Department)
	s.Equal(models.ID("dep1"), found.Department.ID)

	page := &store.Page{Size: 10, Sort: []store.Order{{Field: "salary", Desc: true}}}
	items, err := store.Collect(employees.FindAll(s.ctx, page))
	s.Require().NoError(err)
	s.Require().Len(items, 2)
	s.Equal("Ann", items[0].FirstName)
	s.Equal("Bob", items[1].FirstName)
}
