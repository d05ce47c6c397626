package store

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/goccy/go-json"

	"github.com/hrdemo/company/pkg/models"
)

// sortKey is one extracted JSON value, ranked by type first so that absent
// values sort before anything else.
type sortKey struct {
	rank int
	num  float64
	str  string
}

func extractKey(doc []byte, field string) sortKey {
	value, dataType, _, err := jsonparser.Get(doc, strings.Split(field, ".")...)
	if err != nil {
		return sortKey{}
	}
	switch dataType {
	case jsonparser.Boolean:
		if b, _ := jsonparser.ParseBoolean(value); b {
			return sortKey{rank: 1, num: 1}
		}
		return sortKey{rank: 1}
	case jsonparser.Number:
		f, _ := strconv.ParseFloat(string(value), 64)
		return sortKey{rank: 2, num: f}
	case jsonparser.String:
		return sortKey{rank: 3, str: string(value)}
	case jsonparser.NotExist, jsonparser.Null:
		return sortKey{}
	default:
		return sortKey{rank: 4, str: string(value)}
	}
}

func (a sortKey) compare(b sortKey) int {
	if c := cmp.Compare(a.rank, b.rank); c != 0 {
		return c
	}
	if c := cmp.Compare(a.num, b.num); c != 0 {
		return c
	}
	return strings.Compare(a.str, b.str)
}

// SortEntities orders items in place by the given keys, reading field values
// from each entity's JSON form. Ties fall back to ascending identifiers so the
// order is total.
func SortEntities[E models.Entity](items []E, orders []Order) error {
	if len(items) < 2 {
		return nil
	}
	keys := make(map[models.ID][]sortKey, len(items))
	for _, item := range items {
		doc, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to encode %s for sorting: %w", item.GetID(), err)
		}
		k := make([]sortKey, len(orders))
		for i, o := range orders {
			if o.Field == "id" {
				k[i] = sortKey{rank: 3, str: string(item.GetID())}
				continue
			}
			k[i] = extractKey(doc, o.Field)
		}
		keys[item.GetID()] = k
	}

	slices.SortStableFunc(items, func(a, b E) int {
		ka, kb := keys[a.GetID()], keys[b.GetID()]
		for i, o := range orders {
			c := ka[i].compare(kb[i])
			if o.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return strings.Compare(string(a.GetID()), string(b.GetID()))
	})
	return nil
}

// ApplyPage sorts items and returns the requested window.
func ApplyPage[E models.Entity](items []E, page Page) ([]E, error) {
	if err := SortEntities(items, page.Sort); err != nil {
		return nil, err
	}
	start, end := page.Window(len(items))
	return items[start:end], nil
}
