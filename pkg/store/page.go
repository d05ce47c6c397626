package store

import (
	"fmt"
	"math"
	"strings"

	"github.com/hrdemo/company/pkg/models"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 2000
)

// Order is one sort key. Field is a JSON field name of the entity.
type Order struct {
	Field string
	Desc  bool
}

func (o Order) String() string {
	if o.Desc {
		return o.Field + ",desc"
	}
	return o.Field + ",asc"
}

// ParseOrder reads the "field[,asc|desc]" form used by the REST API.
func ParseOrder(s string) (Order, error) {
	field, dir, _ := strings.Cut(s, ",")
	field = strings.TrimSpace(field)
	if field == "" {
		return Order{}, fmt.Errorf("empty sort field in %q", s)
	}
	switch strings.ToLower(strings.TrimSpace(dir)) {
	case "", "asc":
		return Order{Field: field}, nil
	case "desc":
		return Order{Field: field, Desc: true}, nil
	default:
		return Order{}, fmt.Errorf("invalid sort direction in %q", s)
	}
}

// Page selects a slice of a sorted result. Number is zero based.
type Page struct {
	Number int
	Size   int
	Sort   []Order
}

func (p Page) Offset() int {
	return p.Number * p.Size
}

// Check validates bounds and sort keys against the entity kind.
func (p Page) Check(kind models.Meta) error {
	if p.Number < 0 {
		return models.NewValidationError(kind.Name, models.KeyPage, "page must not be negative")
	}
	if p.Size < 1 || p.Size > MaxPageSize {
		return models.NewValidationError(kind.Name, models.KeyPage, fmt.Sprintf("size must be between 1 and %d", MaxPageSize))
	}
	// The end of the window must fit in an int.
	if p.Number >= math.MaxInt/p.Size {
		return models.NewValidationError(kind.Name, models.KeyPage, fmt.Sprintf("page %d is out of range", p.Number))
	}
	for _, o := range p.Sort {
		if !kind.Sortable(o.Field) {
			return models.NewValidationError(kind.Name, models.KeySort, fmt.Sprintf("cannot sort by %q", o.Field))
		}
	}
	return nil
}

// TotalPages is the number of pages needed to hold total elements.
func (p Page) TotalPages(total int64) int {
	if p.Size <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(p.Size) - 1) / int64(p.Size))
}

// Window returns the bounds of the page inside a result of n elements.
func (p Page) Window(n int) (start, end int) {
	start = min(p.Offset(), n)
	end = min(start+p.Size, n)
	return start, end
}
