package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/orderdesk/api/controllers"
	"github.com/angelmondragon/orderdesk/api/middleware"
	"github.com/angelmondragon/orderdesk/internal/notices"
	"github.com/angelmondragon/orderdesk/internal/records"
	"github.com/angelmondragon/orderdesk/pkg/config"
	"github.com/angelmondragon/orderdesk/pkg/logger"
	"github.com/angelmondragon/orderdesk/pkg/models"
	pkgredis "github.com/angelmondragon/orderdesk/pkg/redis"
)

// Dependencies are the services the API routes are wired to.
type Dependencies struct {
	RedisPinger pkgredis.Pinger
	Idempotency pkgredis.IdempotencyStore
	RecordStore controllers.Reacher

	Notifier *notices.Notifier
	Catalog  controllers.CatalogSearcher
	Drafts   interface {
		controllers.DraftService
		controllers.OrderEditor
	}

	Products       *records.Controller[models.Product]
	Customers      *records.Controller[models.Customer]
	Users          *records.Controller[models.User]
	PurchaseOrders *records.Controller[models.PurchaseOrder]

	// Metrics serves the Prometheus scrape endpoint; nil disables it.
	Metrics http.Handler
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.RedisPinger, deps.RecordStore))
	})

	if deps.Metrics != nil && cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, deps.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Notices())
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.Get("/catalog/products", controllers.CatalogSearch(deps.Catalog, deps.Notifier, logg))

		r.Route("/drafts", func(r chi.Router) {
			r.Post("/", controllers.DraftOpen(deps.Drafts, logg))
			r.Route("/{draftID}", func(r chi.Router) {
				r.Get("/", controllers.DraftGet(deps.Drafts, logg))
				r.Delete("/", controllers.DraftClose(deps.Drafts, logg))
				r.Patch("/", controllers.DraftUpdateFields(deps.Drafts, logg))
				r.Post("/picker/open", controllers.DraftOpenPicker(deps.Drafts, logg))
				r.Post("/picker/close", controllers.DraftClosePicker(deps.Drafts, logg))
				r.Post("/picker/search", controllers.DraftSearch(deps.Drafts, logg))
				r.Post("/items", controllers.DraftSelectItem(deps.Drafts, logg))
				r.Put("/items/{itemKey}", controllers.DraftSetQuantity(deps.Drafts, logg))
				r.Delete("/items/{itemKey}", controllers.DraftRemoveItem(deps.Drafts, logg))
				r.Post("/validate", controllers.DraftValidate(deps.Drafts, logg))
				r.Post("/submit", controllers.DraftSubmit(deps.Drafts, logg))
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.RecordList(deps.Products, nil, logg))
			r.Post("/", controllers.RecordCreate(deps.Products, logg))
			r.Put("/{recordID}", controllers.RecordUpdate(deps.Products, controllers.BindProduct, logg))
			r.Delete("/{recordID}", controllers.RecordDelete(deps.Products, logg))
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", controllers.RecordList(deps.Customers, nil, logg))
			r.Post("/", controllers.RecordCreate(deps.Customers, logg))
			r.Put("/{recordID}", controllers.RecordUpdate(deps.Customers, controllers.BindCustomer, logg))
			r.Delete("/{recordID}", controllers.RecordDelete(deps.Customers, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.RecordList(deps.Users, nil, logg))
			r.Post("/", controllers.RecordCreate(deps.Users, logg))
			r.Put("/{recordID}", controllers.RecordUpdate(deps.Users, controllers.BindUser, logg))
			r.Delete("/{recordID}", controllers.RecordDelete(deps.Users, logg))
		})

		r.Route("/purchase-orders", func(r chi.Router) {
			r.Get("/", controllers.RecordList(deps.PurchaseOrders, controllers.RenderOrders, logg))
			r.Post("/{recordID}/edit", controllers.OrderEdit(deps.PurchaseOrders, deps.Drafts, logg))
			r.Delete("/{recordID}", controllers.RecordDelete(deps.PurchaseOrders, logg))
		})
	})

	return r
}
