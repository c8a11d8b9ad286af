package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/orderdesk/api/responses"
	"github.com/angelmondragon/orderdesk/api/validators"
	"github.com/angelmondragon/orderdesk/internal/drafts"
	"github.com/angelmondragon/orderdesk/internal/sessions"
	"github.com/angelmondragon/orderdesk/pkg/logger"
)

// DraftService is the order builder surface the draft routes drive.
type DraftService interface {
	Open(ctx context.Context) (sessions.View, error)
	Get(ctx context.Context, id string) (sessions.View, error)
	Close(ctx context.Context, id string) error
	UpdateFields(ctx context.Context, id string, patch drafts.FieldsPatch) (sessions.View, error)
	OpenPicker(ctx context.Context, id string) (sessions.View, error)
	ClosePicker(ctx context.Context, id string) (sessions.View, error)
	Search(ctx context.Context, id, query string) (sessions.View, error)
	Select(ctx context.Context, id, key string) (sessions.View, error)
	SetQuantity(ctx context.Context, id, key, raw string) (sessions.View, error)
	RemoveItem(ctx context.Context, id, key string) (sessions.View, error)
	Validate(ctx context.Context, id string) error
	Submit(ctx context.Context, id string) (sessions.SubmitResult, error)
}

type searchRequest struct {
	Query string `json:"query" validate:"max=120"`
}

type selectRequest struct {
	Key string `json:"key" validate:"required"`
}

// the raw text is kept so that "abc" and "0" reach the line item rules unchanged
type quantityRequest struct {
	Quantity string `json:"quantity"`
}

func draftID(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "draftID"))
}

func itemKey(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "itemKey"))
}

func writeView(w http.ResponseWriter, r *http.Request, logg *logger.Logger, view sessions.View, err error) {
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(r.Context(), w, view)
}

func DraftOpen(svc DraftService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.Open(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(r.Context(), w, http.StatusCreated, view)
	}
}

func DraftGet(svc DraftService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.Get(r.Context(), draftID(r))
		writeView(w, r, logg, view, err)
	}
}

func DraftClose(svc DraftService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Close(r.Context(), draftID(r)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(r.Context(), w, map[string]bool{"closed": true})
	}
}

func DraftUpdateFields(svc DraftService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch drafts.FieldsPatch
		if err := validators.DecodeJSONBody(r, &patch); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.UpdateFields(r.Context(), draftID(r), patch)
		writeView(w, r, logg, view, err)
	}
}

func DraftOpenPicker(svc DraftService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.OpenPicker(r.Context(), draftID(r))
		writeView(w, r, logg, view, err)
	}
}

func DraftClosePicker(svc DraftService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.ClosePicker(r.Context(), draftID(r))
		writeView(w, r, logg, view, err)
	}
}

func DraftSearch(svc DraftService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload searchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Search(r.Context(), draftID(r), payload.Query)
		writeView(w, r, logg, view, err)
	}
}

func DraftSelectItem(svc DraftService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload selectRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Select(r.Context(), draftID(r), payload.Key)
		writeView(w, r, logg, view, err)
	}
}

func DraftSetQuantity(svc DraftService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload quantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.SetQuantity(r.Context(), draftID(r), itemKey(r), payload.Quantity)
		writeView(w, r, logg, view, err)
	}
}

func DraftRemoveItem(svc DraftService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.RemoveItem(r.Context(), draftID(r), itemKey(r))
		writeView(w, r, logg, view, err)
	}
}

func DraftValidate(svc DraftService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Validate(r.Context(), draftID(r)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(r.Context(), w, map[string]bool{"valid": true})
	}
}

// DraftSubmit sends the draft. A failed send is reported with the draft still editable.
func DraftSubmit(svc DraftService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.Submit(r.Context(), draftID(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := http.StatusOK
		if result.Submitted && result.Draft.Mode == drafts.ModeCreate {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(r.Context(), w, status, result)
	}
}
