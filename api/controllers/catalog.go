package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/orderdesk/api/responses"
	"github.com/angelmondragon/orderdesk/api/validators"
	"github.com/angelmondragon/orderdesk/internal/notices"
	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
	"github.com/angelmondragon/orderdesk/pkg/logger"
	"github.com/angelmondragon/orderdesk/pkg/models"
)

const maxSearchLength = 120

type CatalogSearcher interface {
	Search(ctx context.Context, query string) ([]models.Product, error)
}

// CatalogSearch lists products matching ?search= outside of any draft.
func CatalogSearch(svc CatalogSearcher, notifier *notices.Notifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		query := validators.ParseQueryString(r, "search", maxSearchLength)
		products, err := svc.Search(r.Context(), query)
		if err != nil {
			notifier.Failure(r.Context(), err, "Failed to fetch products")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if products == nil {
			products = []models.Product{}
		}
		responses.WriteSuccess(r.Context(), w, products)
	}
}
