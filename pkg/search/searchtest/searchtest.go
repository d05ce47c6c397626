// Package searchtest holds the behaviour shared by every search backend.
package searchtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/hrdemo/company/pkg/models"
	"github.com/hrdemo/company/pkg/search"
)

// Suite is run by every search backend package with its own constructor.
type Suite struct {
	suite.Suite

	// New returns an empty backend for each test.
	New func(t *testing.T) search.Backend

	ctx context.Context
	b   search.Backend
}

func (s *Suite) SetupTest() {
	s.ctx = context.Background()
	s.b = s.New(s.T())
	s.Require().NoError(s.b.Migrate(s.ctx))
}

func (s *Suite) put(kind string, id models.ID, body string) {
	fields, err := search.Analyze([]byte(body))
	s.Require().NoError(err)
	s.Require().NoError(s.b.Put(s.ctx, kind, search.Document{ID: id, Body: []byte(body), Fields: fields}))
}

func (s *Suite) ids(kind, query string, offset, limit int) []models.ID {
	q, err := search.Parse(query)
	s.Require().NoError(err)
	hits, err := s.b.Search(s.ctx, kind, q, offset, limit)
	s.Require().NoError(err)
	out := []models.ID{}
	for _, h := range hits {
		out = append(out, h.ID)
	}
	return out
}

func (s *Suite) TestFindByIdentifier() {
	s.put("task", "t1", `{"id":"t1","title":"Write report"}`)
	s.put("task", "t2", `{"id":"t2","title":"Read report"}`)

	s.Equal([]models.ID{"t1"}, s.ids("task", "id:t1", 0, 0))

	q, err := search.Parse("id:t1")
	s.Require().NoError(err)
	hits, err := s.b.Search(s.ctx, "task", q, 0, 0)
	s.Require().NoError(err)
	s.Require().Len(hits, 1)
	s.JSONEq(`{"id":"t1","title":"Write report"}`, string(hits[0].Body))
}

func (s *Suite) TestCaseInsensitiveWords() {
	s.put("task", "t1", `{"id":"t1","title":"Write Quarterly Report"}`)
	s.put("task", "t2", `{"id":"t2","title":"Lunch"}`)

	s.Equal([]models.ID{"t1"}, s.ids("task", "QUARTERLY", 0, 0))
	s.Equal([]models.ID{"t1"}, s.ids("task", "title:report", 0, 0))
	s.Equal([]models.ID{"t1"}, s.ids("task", `title:"quarterly rep"`, 0, 0))
	s.Equal([]models.ID{"t2"}, s.ids("task", "title:lun*", 0, 0))
	s.Equal([]models.ID{"t2"}, s.ids("task", "title:l?nch", 0, 0))
	s.Empty(s.ids("task", "description:report", 0, 0))
}

func (s *Suite) TestReplaceDropsOldTokens() {
	s.put("task", "t1", `{"id":"t1","title":"old"}`)
	s.put("task", "t1", `{"id":"t1","title":"new"}`)

	s.Empty(s.ids("task", "old", 0, 0))
	s.Equal([]models.ID{"t1"}, s.ids("task", "new", 0, 0))

	n, err := s.b.Count(s.ctx, "task")
	s.Require().NoError(err)
	s.EqualValues(1, n)
}

func (s *Suite) TestDeleteIsIdempotent() {
	s.put("task", "t1", `{"id":"t1","title":"gone"}`)

	s.Require().NoError(s.b.Delete(s.ctx, "task", "t1"))
	s.Require().NoError(s.b.Delete(s.ctx, "task", "t1"))
	s.Require().NoError(s.b.Delete(s.ctx, "task", "never-indexed"))

	s.Empty(s.ids("task", "id:t1", 0, 0))
}

func (s *Suite) TestRelevanceThenIdentifier() {
	s.put("employee", "e3", `{"id":"e3","firstName":"Ann","lastName":"Lee"}`)
	s.put("employee", "e1", `{"id":"e1","firstName":"Bob","lastName":"Lee"}`)
	s.put("employee", "e2", `{"id":"e2","firstName":"Ann","lastName":"Ray"}`)

	s.Equal([]models.ID{"e3", "e1", "e2"}, s.ids("employee", "firstName:ann lastName:lee", 0, 0))
	s.Equal([]models.ID{"e1"}, s.ids("employee", "firstName:ann lastName:lee", 1, 1))
	s.Equal([]models.ID{"e3"}, s.ids("employee", "+firstName:ann +lastName:lee", 0, 0))
	s.Equal([]models.ID{"e3", "e2"}, s.ids("employee", "+firstName:ann lastName:lee", 0, 0))
}

func (s *Suite) TestNestedClauseScoresOnlyWhenMatched() {
	s.put("employee", "a", `{"id":"a","firstName":"Ann","lastName":"Ray","city":"Rome"}`)
	s.put("employee", "b", `{"id":"b","firstName":"Ann","lastName":"Lee","city":"Rome"}`)
	s.put("employee", "c", `{"id":"c","firstName":"Bob","lastName":"Lee","city":"Oslo"}`)

	s.Equal([]models.ID{"c", "a", "b"}, s.ids("employee", "firstName:ann (lastName:lee AND city:oslo)", 0, 0))
}

func (s *Suite) TestExclusion() {
	s.put("task", "t1", `{"id":"t1","title":"draft one"}`)
	s.put("task", "t2", `{"id":"t2","title":"final one"}`)

	s.Equal([]models.ID{"t2"}, s.ids("task", "-title:draft", 0, 0))
	s.Equal([]models.ID{"t2"}, s.ids("task", "one AND NOT draft", 0, 0))
	s.Equal([]models.ID{"t1", "t2"}, s.ids("task", "*", 0, 0))
}

func (s *Suite) TestNestedFields() {
	s.put("job", "j1", `{"id":"j1","jobTitle":"dev","tasks":[{"id":"t1"},{"id":"t2"}],"employee":{"id":"e1"}}`)
	s.put("job", "j2", `{"id":"j2","jobTitle":"ops","tasks":[{"id":"t3"}]}`)

	s.Equal([]models.ID{"j1"}, s.ids("job", "tasks.id:t2", 0, 0))
	s.Equal([]models.ID{"j1"}, s.ids("job", "employee.id:e1", 0, 0))
	s.Equal([]models.ID{"j1", "j2"}, s.ids("job", "tasks.id:*", 0, 0))
}

func (s *Suite) TestPaging() {
	for _, id := range []models.ID{"a", "b", "c", "d", "e"} {
		s.put("region", id, `{"id":"`+string(id)+`","regionName":"zone"}`)
	}

	s.Equal([]models.ID{"a", "b"}, s.ids("region", "zone", 0, 2))
	s.Equal([]models.ID{"c", "d"}, s.ids("region", "zone", 2, 2))
	s.Equal([]models.ID{"e"}, s.ids("region", "zone", 4, 2))
	s.Empty(s.ids("region", "zone", 6, 2))

	q, err := search.Parse("zone")
	s.Require().NoError(err)
	n, err := s.b.CountMatches(s.ctx, "region", q)
	s.Require().NoError(err)
	s.EqualValues(5, n)
}

func (s *Suite) TestKindsAreSeparate() {
	s.put("job", "x", `{"id":"x","jobTitle":"shared"}`)
	s.put("job_history", "x", `{"id":"x","language":"FRENCH"}`)

	s.Empty(s.ids("job", "language:french", 0, 0))
	s.Require().NoError(s.b.Clear(s.ctx, "job"))

	n, err := s.b.Count(s.ctx, "job")
	s.Require().NoError(err)
	s.Zero(n)
	n, err = s.b.Count(s.ctx, "job_history")
	s.Require().NoError(err)
	s.EqualValues(1, n)
}
