package store

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/angelmondragon/orderdesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
	"github.com/angelmondragon/orderdesk/pkg/models"
)

// Resource describes how one record kind maps onto the record store's REST paths.
type Resource[T any] struct {
	Kind       enums.RecordKind
	ListPath   string
	CreatePath string
	// UpdatePath builds the update path from the record being saved.
	UpdatePath func(T) (string, error)
	// DeletePath is nil for kinds the store does not let the console delete.
	DeletePath func(id string) string
	Identity   func(T) string

	CreateAccept func(int) bool
	UpdateAccept func(int) bool
	DeleteAccept func(int) bool
}

func (r Resource[T]) op(action string) string {
	return fmt.Sprintf("%s.%s", r.Kind, action)
}

func escaped(prefix string) func(string) string {
	return func(id string) string {
		return prefix + url.PathEscape(strings.TrimSpace(id))
	}
}

func requireID(kind enums.RecordKind, id string) error {
	if strings.TrimSpace(id) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s record has no identifier", kind))
	}
	return nil
}

// Products: updates address the server id, deletes address the productId.
func Products() Resource[models.Product] {
	return Resource[models.Product]{
		Kind:       enums.RecordKindProducts,
		ListPath:   "/get-products",
		CreatePath: "/store-product",
		UpdatePath: func(p models.Product) (string, error) {
			if err := requireID(enums.RecordKindProducts, p.ID.String()); err != nil {
				return "", err
			}
			return escaped("/update-product/")(p.ID.String()), nil
		},
		DeletePath:   escaped("/delete-product/"),
		Identity:     func(p models.Product) string { return p.ProductID },
		CreateAccept: statusIn(http.StatusCreated),
		UpdateAccept: statusIn(http.StatusOK),
		DeleteAccept: statusIn(http.StatusOK),
	}
}

func Customers() Resource[models.Customer] {
	return Resource[models.Customer]{
		Kind:       enums.RecordKindCustomers,
		ListPath:   "/customers",
		CreatePath: "/store-customer",
		UpdatePath: func(c models.Customer) (string, error) {
			if err := requireID(enums.RecordKindCustomers, c.CustomerID); err != nil {
				return "", err
			}
			return escaped("/update-customer/")(c.CustomerID), nil
		},
		DeletePath:   escaped("/delete-customers/"),
		Identity:     func(c models.Customer) string { return c.CustomerID },
		CreateAccept: statusIn(http.StatusCreated),
		UpdateAccept: statusIn(http.StatusOK),
		DeleteAccept: statusIn(http.StatusOK),
	}
}

// Users accept any 2xx on create and delete.
func Users() Resource[models.User] {
	return Resource[models.User]{
		Kind:       enums.RecordKindUsers,
		ListPath:   "/users",
		CreatePath: "/add-users",
		UpdatePath: func(u models.User) (string, error) {
			if err := requireID(enums.RecordKindUsers, u.UserID); err != nil {
				return "", err
			}
			return escaped("/update-user/")(u.UserID), nil
		},
		DeletePath:   escaped("/delete-user/"),
		Identity:     func(u models.User) string { return u.UserID },
		CreateAccept: status2xx,
		UpdateAccept: statusIn(http.StatusOK),
		DeleteAccept: status2xx,
	}
}

// PurchaseOrders cannot be deleted. Creation succeeds only on 201; edits accept any 2xx.
func PurchaseOrders() Resource[models.PurchaseOrder] {
	return Resource[models.PurchaseOrder]{
		Kind:       enums.RecordKindPurchaseOrders,
		ListPath:   "/purchase-orders",
		CreatePath: "/store-purchase-order",
		UpdatePath: func(o models.PurchaseOrder) (string, error) {
			if err := requireID(enums.RecordKindPurchaseOrders, o.ID.String()); err != nil {
				return "", err
			}
			return escaped("/edit-purchase-orders/")(o.ID.String()), nil
		},
		Identity:     func(o models.PurchaseOrder) string { return o.ID.String() },
		CreateAccept: statusIn(http.StatusCreated),
		UpdateAccept: status2xx,
	}
}

// ResourceClient performs the CRUD calls for one record kind.
type ResourceClient[T any] struct {
	client *Client
	res    Resource[T]
}

func NewResourceClient[T any](client *Client, res Resource[T]) *ResourceClient[T] {
	return &ResourceClient[T]{client: client, res: res}
}

func (r *ResourceClient[T]) Kind() enums.RecordKind {
	return r.res.Kind
}

func (r *ResourceClient[T]) Identity(rec T) string {
	return r.res.Identity(rec)
}

func (r *ResourceClient[T]) CanDelete() bool {
	return r.res.DeletePath != nil
}

func (r *ResourceClient[T]) List(ctx context.Context) ([]T, error) {
	var out []T
	err := r.client.do(ctx, call{
		op:     r.res.op("list"),
		method: http.MethodGet,
		path:   r.res.ListPath,
		accept: statusIn(http.StatusOK),
	}, &out)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func (r *ResourceClient[T]) Create(ctx context.Context, rec T) error {
	return r.client.do(ctx, call{
		op:     r.res.op("create"),
		method: http.MethodPost,
		path:   r.res.CreatePath,
		body:   rec,
		accept: r.res.CreateAccept,
	}, nil)
}

func (r *ResourceClient[T]) Update(ctx context.Context, rec T) error {
	path, err := r.res.UpdatePath(rec)
	if err != nil {
		return err
	}
	return r.client.do(ctx, call{
		op:     r.res.op("update"),
		method: http.MethodPut,
		path:   path,
		body:   rec,
		accept: r.res.UpdateAccept,
	}, nil)
}

func (r *ResourceClient[T]) Delete(ctx context.Context, id string) error {
	if r.res.DeletePath == nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("%s cannot be deleted", r.res.Kind))
	}
	if err := requireID(r.res.Kind, id); err != nil {
		return err
	}
	return r.client.do(ctx, call{
		op:     r.res.op("delete"),
		method: http.MethodDelete,
		path:   r.res.DeletePath(id),
		accept: r.res.DeleteAccept,
	}, nil)
}

// SearchProducts queries the catalog. An empty query returns the unfiltered page.
func (c *Client) SearchProducts(ctx context.Context, query string) ([]models.Product, error) {
	var out []models.Product
	err := c.do(ctx, call{
		op:     "products.search",
		method: http.MethodGet,
		path:   "/products?search=" + url.QueryEscape(query),
		accept: statusIn(http.StatusOK),
	}, &out)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Product{}
	}
	return out, nil
}
