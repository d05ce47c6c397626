package company

import (
	"io"
	"iter"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/hrdemo/company/pkg/models"
	"github.com/hrdemo/company/pkg/responder"
	"github.com/hrdemo/company/pkg/service"
	"github.com/hrdemo/company/pkg/store"
)

// maxBody bounds request payloads.
const maxBody = 1 << 20

// Resource serves the REST endpoints of one entity kind.
type Resource[E models.Entity] struct {
	*service.Service[E]
	log zerolog.Logger
}

func (res *Resource[E]) routes(api *mux.Router) {
	path := "/" + res.Meta().Path
	api.HandleFunc(path, res.handleCreate).Methods(http.MethodPost)
	api.HandleFunc(path, res.handleUpdate).Methods(http.MethodPut)
	api.HandleFunc(path, res.handleList).Methods(http.MethodGet)
	api.HandleFunc(path+"/{id}", res.handleGet).Methods(http.MethodGet)
	api.HandleFunc(path+"/{id}", res.handleDelete).Methods(http.MethodDelete)
	api.HandleFunc("/_search"+path, res.handleSearch).Methods(http.MethodGet)
}

func (res *Resource[E]) fail(w http.ResponseWriter, err error) {
	respondError(w, res.log, res.Meta().Name, err)
}

func (res *Resource[E]) decode(w http.ResponseWriter, r *http.Request) (E, error) {
	entity := res.NewEntity()
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err == nil {
		err = json.Unmarshal(data, entity)
	}
	if err != nil {
		var zero E
		return zero, models.NewValidationError(res.Meta().Name, KeyPayload, "invalid request payload: "+err.Error())
	}
	return entity, nil
}

func (res *Resource[E]) handleCreate(w http.ResponseWriter, r *http.Request) {
	entity, err := res.decode(w, r)
	if err != nil {
		res.fail(w, err)
		return
	}
	saved, err := res.Create(r.Context(), entity)
	if err != nil {
		res.fail(w, err)
		return
	}
	id := saved.GetID()
	w.Header().Set("Location", "/api/"+res.Meta().Path+"/"+id.String())
	alert(w, res.Meta().Name, "created", id)
	respondJSON(w, res.log, http.StatusCreated, saved)
}

func (res *Resource[E]) handleUpdate(w http.ResponseWriter, r *http.Request) {
	entity, err := res.decode(w, r)
	if err != nil {
		res.fail(w, err)
		return
	}
	saved, err := res.Update(r.Context(), entity)
	if err != nil {
		res.fail(w, err)
		return
	}
	alert(w, res.Meta().Name, "updated", saved.GetID())
	respondJSON(w, res.log, http.StatusOK, saved)
}

func (res *Resource[E]) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if responder.WantsStream(r) {
		if err := responder.Stream(w, r, res.FindAll(ctx, nil)); err != nil {
			res.fail(w, err)
		}
		return
	}

	page, err := responder.ParsePage(r, res.Meta(), res.Meta().Paginated)
	if err != nil {
		res.fail(w, err)
		return
	}
	if page == nil {
		err = responder.List(w, res.FindAll(ctx, nil))
	} else {
		err = res.paged(w, r, page, func() (int64, error) { return res.CountAll(ctx) }, res.FindAll(ctx, page))
	}
	if err != nil {
		res.fail(w, err)
	}
}

func (res *Resource[E]) handleGet(w http.ResponseWriter, r *http.Request) {
	id := models.ID(mux.Vars(r)["id"])
	entity, found, err := res.FindOne(r.Context(), id)
	if err != nil {
		res.fail(w, err)
		return
	}
	if !found {
		res.fail(w, store.ErrNotFound)
		return
	}
	respondJSON(w, res.log, http.StatusOK, entity)
}

func (res *Resource[E]) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := models.ID(mux.Vars(r)["id"])
	if err := res.Delete(r.Context(), id); err != nil {
		res.fail(w, err)
		return
	}
	alert(w, res.Meta().Name, "deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

func (res *Resource[E]) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query().Get("query")

	page, err := responder.ParsePage(r, res.Meta(), res.Meta().Paginated)
	if err != nil {
		res.fail(w, err)
		return
	}
	if page == nil {
		err = responder.List(w, res.Search(ctx, query, nil))
	} else {
		err = res.paged(w, r, page, func() (int64, error) { return res.SearchMatches(ctx, query) }, res.Search(ctx, query, page))
	}
	if err != nil {
		res.fail(w, err)
	}
}

// paged fetches the total before writing anything.
func (res *Resource[E]) paged(w http.ResponseWriter, r *http.Request, page *store.Page, count func() (int64, error), seq iter.Seq2[E, error]) error {
	total, err := count()
	if err != nil {
		return err
	}
	return responder.Paged(w, r, seq, *page, total)
}
