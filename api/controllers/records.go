package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/orderdesk/api/responses"
	"github.com/angelmondragon/orderdesk/api/validators"
	"github.com/angelmondragon/orderdesk/internal/records"
	"github.com/angelmondragon/orderdesk/internal/sessions"
	"github.com/angelmondragon/orderdesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
	"github.com/angelmondragon/orderdesk/pkg/logger"
	"github.com/angelmondragon/orderdesk/pkg/models"
)

type recordList struct {
	Kind     enums.RecordKind  `json:"kind"`
	State    enums.RecordState `json:"state"`
	Items    any               `json:"items"`
	LoadedAt time.Time         `json:"loadedAt,omitempty"`
}

// Binder reconciles the identifier in the path with a decoded update body. cached is the
// listed record with that identifier, when there is one.
type Binder[T any] func(id string, rec *T, cached T, found bool) error

func recordID(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "recordID"))
}

func bindIdentity(id string, field string, current *string) error {
	if strings.TrimSpace(*current) == "" {
		*current = id
		return nil
	}
	if strings.TrimSpace(*current) != id {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s does not match the path", field)).
			WithDetails(map[string]any{"field": field})
	}
	return nil
}

// BindProduct keys products by productId; the store id used for updates comes from the list.
func BindProduct(id string, rec *models.Product, cached models.Product, found bool) error {
	if err := bindIdentity(id, "productId", &rec.ProductID); err != nil {
		return err
	}
	if rec.ID.IsZero() && found {
		rec.ID = cached.ID
	}
	return nil
}

func BindCustomer(id string, rec *models.Customer, _ models.Customer, _ bool) error {
	return bindIdentity(id, "customerId", &rec.CustomerID)
}

func BindUser(id string, rec *models.User, _ models.User, _ bool) error {
	return bindIdentity(id, "user_id", &rec.UserID)
}

// RenderOrders shapes purchase orders the way the order list displays them.
func RenderOrders(orders []models.PurchaseOrder) any {
	views := make([]models.OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, models.NewOrderView(o))
	}
	return views
}

// RecordList re-fetches the list unless ?refresh=false and returns it. A failed fetch still
// answers with the (empty) list; the failure travels as a notice.
func RecordList[T any](ctrl *records.Controller[T], render func([]T) any, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refresh, err := validators.ParseQueryBool(r, "refresh", true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if refresh {
			_ = ctrl.Load(r.Context())
		}
		snap := ctrl.Snapshot()
		var items any = snap.Items
		if render != nil {
			items = render(snap.Items)
		}
		responses.WriteSuccess(r.Context(), w, recordList{Kind: snap.Kind, State: snap.State, Items: items, LoadedAt: snap.LoadedAt})
	}
}

func RecordCreate[T any](ctrl *records.Controller[T], logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rec T
		if err := validators.DecodeJSONBodyLoose(r, &rec); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		created, err := ctrl.Create(r.Context(), rec)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(r.Context(), w, http.StatusCreated, created)
	}
}

func RecordUpdate[T any](ctrl *records.Controller[T], bind Binder[T], logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := recordID(r)
		var rec T
		if err := validators.DecodeJSONBodyLoose(r, &rec); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cached, found := ctrl.Find(id)
		if bind != nil {
			if err := bind(id, &rec, cached, found); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		if err := ctrl.Save(r.Context(), rec); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(r.Context(), w, rec)
	}
}

// RecordDelete deletes only when ?confirm=true. Without it nothing is sent and the
// confirmation prompt comes back for the console to show.
func RecordDelete[T any](ctrl *records.Controller[T], logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !ctrl.CanDelete() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("%s cannot be deleted", ctrl.Kind())))
			return
		}
		confirm, err := validators.ParseQueryBool(r, "confirm", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id := recordID(r)
		var asked records.Prompt
		deleted, err := ctrl.ConfirmAndDelete(r.Context(), id, records.ConfirmFunc(func(_ context.Context, p records.Prompt) bool {
			asked = p
			return confirm
		}))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !deleted {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeStateConflict, "delete requires confirmation").
				WithDetails(map[string]any{"prompt": asked}))
			return
		}
		responses.WriteSuccess(r.Context(), w, map[string]any{"deleted": true, "id": id})
	}
}

// OrderEditor opens an edit draft for an existing order.
type OrderEditor interface {
	OpenEdit(ctx context.Context, order models.PurchaseOrder, refresh func()) (sessions.View, error)
}

// OrderEdit opens the order builder on a listed order. The order list is re-fetched once
// the edit is saved.
func OrderEdit(ctrl *records.Controller[models.PurchaseOrder], editor OrderEditor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := recordID(r)
		order, ok := ctrl.Find(id)
		if !ok {
			_ = ctrl.Load(r.Context())
			order, ok = ctrl.Find(id)
		}
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "purchase order not found").
				WithDetails(map[string]any{"id": id}))
			return
		}

		var view sessions.View
		err := ctrl.EditThenRefresh(r.Context(), order, records.EditorFunc[models.PurchaseOrder](
			func(ctx context.Context, rec models.PurchaseOrder, refresh func()) error {
				var openErr error
				view, openErr = editor.OpenEdit(ctx, rec, refresh)
				return openErr
			}))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(r.Context(), w, http.StatusCreated, view)
	}
}
