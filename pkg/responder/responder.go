// Package responder turns result sequences into HTTP responses: a JSON
// array, a flushed stream of JSON lines, or one page with X-Total-Count and
// Link navigation headers.
package responder

import (
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/hrdemo/company/pkg/models"
	"github.com/hrdemo/company/pkg/store"
)

const (
	ContentTypeJSON   = "application/json"
	ContentTypeStream = "application/stream+json"
	ContentTypeNDJSON = "application/x-ndjson"

	HeaderTotalCount = "X-Total-Count"
	HeaderLink       = "Link"
)

// ErrHeadersSent marks a Stream failure after the status line went out. The
// caller can only log it.
var ErrHeadersSent = errors.New("response already started")

// JSON writes payload with status. A nil payload writes headers only.
func JSON(w http.ResponseWriter, status int, payload any) error {
	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return fmt.Errorf("failed to encode response: %w", err)
		}
	}
	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(status)
	if body != nil {
		_, err := w.Write(body)
		return err
	}
	return nil
}

// List drains seq and writes it as one JSON array. Nothing is written when
// the sequence fails, so the caller can still answer with an error.
func List[E any](w http.ResponseWriter, seq iter.Seq2[E, error]) error {
	items, err := store.Collect(seq)
	if err != nil {
		return err
	}
	if items == nil {
		items = []E{}
	}
	return JSON(w, http.StatusOK, items)
}

// WantsStream reports whether the client asked for a stream of JSON lines.
func WantsStream(r *http.Request) bool {
	for _, accept := range r.Header.Values("Accept") {
		for _, part := range strings.Split(accept, ",") {
			mt, _, _ := strings.Cut(strings.TrimSpace(part), ";")
			switch strings.ToLower(strings.TrimSpace(mt)) {
			case ContentTypeStream, ContentTypeNDJSON:
				return true
			}
		}
	}
	return false
}

// Stream writes one JSON document per line and flushes after each. It stops
// as soon as the request context is done; the element being produced at
// that moment is dropped. Errors after the first element cannot change the
// status any more and are returned wrapped in ErrHeadersSent.
func Stream[E any](w http.ResponseWriter, r *http.Request, seq iter.Seq2[E, error]) error {
	ctx := r.Context()
	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	started := false

	start := func() {
		if started {
			return
		}
		started = true
		ct := ContentTypeStream
		if accept := r.Header.Get("Accept"); strings.Contains(accept, ContentTypeNDJSON) {
			ct = ContentTypeNDJSON
		}
		w.Header().Set("Content-Type", ct)
		w.WriteHeader(http.StatusOK)
		if flusher != nil {
			flusher.Flush()
		}
	}

	fail := func(err error) error {
		if started {
			return fmt.Errorf("%w: %w", ErrHeadersSent, err)
		}
		return err
	}

	for item, err := range seq {
		if err != nil {
			return fail(err)
		}
		if ctx.Err() != nil {
			return fail(ctx.Err())
		}
		start()
		if err := enc.Encode(item); err != nil {
			return fail(err)
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
	start()
	return nil
}

// ParsePage reads page, size and sort query parameters. It returns nil when
// none is present and paged is false.
func ParsePage(r *http.Request, kind models.Meta, paged bool) (*store.Page, error) {
	q := r.URL.Query()
	if !paged && !q.Has("page") && !q.Has("size") && !q.Has("sort") {
		return nil, nil
	}

	p := &store.Page{Size: store.DefaultPageSize}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, models.NewValidationError(kind.Name, models.KeyPage, fmt.Sprintf("invalid page %q", v))
		}
		p.Number = n
	}
	if v := q.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, models.NewValidationError(kind.Name, models.KeyPage, fmt.Sprintf("invalid size %q", v))
		}
		p.Size = n
	}
	for _, v := range q["sort"] {
		o, err := store.ParseOrder(v)
		if err != nil {
			return nil, models.NewValidationError(kind.Name, models.KeySort, err.Error())
		}
		p.Sort = append(p.Sort, o)
	}
	if err := p.Check(kind); err != nil {
		return nil, err
	}
	return p, nil
}

// Links renders the RFC 5988 Link header for page within total elements,
// keeping every other query parameter of u.
func Links(u *url.URL, page store.Page, total int64) string {
	pages := page.TotalPages(total)
	last := max(pages-1, 0)

	link := func(n int, rel string) string {
		q := u.Query()
		q.Set("page", strconv.Itoa(n))
		q.Set("size", strconv.Itoa(page.Size))
		ref := url.URL{Path: u.Path, RawQuery: q.Encode()}
		return fmt.Sprintf(`<%s>; rel="%s"`, ref.String(), rel)
	}

	var links []string
	if page.Number < pages-1 {
		links = append(links, link(page.Number+1, "next"))
	}
	if page.Number > 0 {
		links = append(links, link(page.Number-1, "prev"))
	}
	links = append(links, link(last, "last"), link(0, "first"))
	return strings.Join(links, ",")
}

// Paged drains one page of results and writes it with the total count and
// navigation links. total is counted separately by the caller, so it may
// disagree with the page under concurrent writes.
func Paged[E any](w http.ResponseWriter, r *http.Request, seq iter.Seq2[E, error], page store.Page, total int64) error {
	items, err := store.Collect(seq)
	if err != nil {
		return err
	}
	if items == nil {
		items = []E{}
	}
	w.Header().Set(HeaderTotalCount, strconv.FormatInt(total, 10))
	w.Header().Set(HeaderLink, Links(r.URL, page, total))
	return JSON(w, http.StatusOK, items)
}
