package company

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/hrdemo/company/pkg/models"
	"github.com/hrdemo/company/pkg/responder"
	"github.com/hrdemo/company/pkg/store"
)

// ApplicationName prefixes alert keys and headers.
const ApplicationName = "companyApp"

const (
	HeaderAlert  = "X-" + ApplicationName + "-alert"
	HeaderError  = "X-" + ApplicationName + "-error"
	HeaderParams = "X-" + ApplicationName + "-params"
)

// Error keys of failures that are not validation errors.
const (
	KeyNotFound         = "notfound"
	KeyReadOnly         = "readonly"
	KeyStoreUnavailable = "storeunavailable"
	KeyIndexUnavailable = "indexunavailable"
	KeyPayload          = "payload"
	KeyBusy             = "busy"
	KeyInternal         = "internal"
)

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Error      string `json:"error"`
	ErrorKey   string `json:"errorKey"`
	EntityName string `json:"entityName,omitempty"`
	Status     int    `json:"status"`
}

// classify maps err to a status and an error key.
func classify(err error) (int, string) {
	if verr, ok := models.AsValidationError(err); ok {
		return http.StatusBadRequest, verr.Key
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, KeyNotFound
	case errors.Is(err, store.ErrReadOnly):
		return http.StatusServiceUnavailable, KeyReadOnly
	case errors.Is(err, store.ErrIndexUnavailable):
		return http.StatusInternalServerError, KeyIndexUnavailable
	case errors.Is(err, store.ErrStoreUnavailable):
		return http.StatusInternalServerError, KeyStoreUnavailable
	}
	return http.StatusInternalServerError, KeyInternal
}

func alert(w http.ResponseWriter, entity, action string, id models.ID) {
	w.Header().Set(HeaderAlert, ApplicationName+"."+entity+"."+action)
	w.Header().Set(HeaderParams, id.String())
}

func respondJSON(w http.ResponseWriter, log zerolog.Logger, status int, payload any) {
	if err := responder.JSON(w, status, payload); err != nil {
		log.Warn().Err(err).Msg("failed to write response")
	}
}

// respondError answers with the status err maps to. Client disconnects are
// only logged.
func respondError(w http.ResponseWriter, log zerolog.Logger, entity string, err error) {
	if errors.Is(err, context.Canceled) {
		log.Debug().Err(err).Str("entity", entity).Msg("client went away")
		return
	}
	if errors.Is(err, responder.ErrHeadersSent) {
		log.Error().Err(err).Str("entity", entity).Msg("response aborted")
		return
	}

	status, key := classify(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("entity", entity).Int("status", status).Msg("request failed")
	}
	w.Header().Set(HeaderError, "error."+key)
	if entity != "" {
		w.Header().Set(HeaderParams, entity)
	}
	respondJSON(w, log, status, ErrorBody{
		Error:      err.Error(),
		ErrorKey:   key,
		EntityName: entity,
		Status:     status,
	})
}
