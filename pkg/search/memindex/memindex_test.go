package memindex_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/hrdemo/company/pkg/search"
	"github.com/hrdemo/company/pkg/search/memindex"
	"github.com/hrdemo/company/pkg/search/searchtest"
)

func TestMemoryIndex(t *testing.T) {
	suite.Run(t, &searchtest.Suite{
		New: func(*testing.T) search.Backend { return memindex.New() },
	})
}

func TestSearchHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := memindex.New().Search(ctx, "task", search.MatchAll{}, 0, 0)
	require.ErrorIs(t, err, context.Canceled)
}
