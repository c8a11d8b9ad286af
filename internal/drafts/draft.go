package drafts

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/orderdesk/internal/lineitems"
	"github.com/angelmondragon/orderdesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
	"github.com/angelmondragon/orderdesk/pkg/models"
)

const (
	ModeCreate = "create"
	ModeEdit   = "edit"
)

// Fields holds the order form text exactly as the operator typed it.
type Fields struct {
	CustomerID           string `json:"customerId"`
	CustomerName         string `json:"customerName"`
	OrderDate            string `json:"orderDate"`
	ExpectedDeliveryDate string `json:"expectedDeliveryDate"`
	PaymentMethod        string `json:"paymentMethod"`
	SpecialInstructions  string `json:"specialInstructions"`
	BillingAddress       string `json:"billingAddress"`
	ShippingAddress      string `json:"shippingAddress"`
	Latitude             string `json:"latitude"`
	Longitude            string `json:"longitude"`
}

// FieldsPatch carries a partial form update; nil members are left alone.
type FieldsPatch struct {
	CustomerID           *string `json:"customerId"`
	CustomerName         *string `json:"customerName"`
	OrderDate            *string `json:"orderDate"`
	ExpectedDeliveryDate *string `json:"expectedDeliveryDate"`
	PaymentMethod        *string `json:"paymentMethod"`
	SpecialInstructions  *string `json:"specialInstructions"`
	BillingAddress       *string `json:"billingAddress"`
	ShippingAddress      *string `json:"shippingAddress"`
	Latitude             *string `json:"latitude"`
	Longitude            *string `json:"longitude"`
}

func (f Fields) apply(p FieldsPatch) Fields {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&f.CustomerID, p.CustomerID)
	set(&f.CustomerName, p.CustomerName)
	set(&f.OrderDate, p.OrderDate)
	set(&f.ExpectedDeliveryDate, p.ExpectedDeliveryDate)
	set(&f.PaymentMethod, p.PaymentMethod)
	set(&f.SpecialInstructions, p.SpecialInstructions)
	set(&f.BillingAddress, p.BillingAddress)
	set(&f.ShippingAddress, p.ShippingAddress)
	set(&f.Latitude, p.Latitude)
	set(&f.Longitude, p.Longitude)
	return f
}

// Draft is the in-progress order held by one builder session.
type Draft struct {
	ID           string               `json:"id"`
	OrderID      models.RecordID      `json:"orderId,omitempty"`
	Fields       Fields               `json:"fields"`
	Items        lineitems.Collection `json:"items"`
	State        enums.DraftState     `json:"state"`
	PickerOpen   bool                 `json:"pickerOpen"`
	CatalogQuery string               `json:"catalogQuery"`
	Catalog      []models.Product     `json:"catalog,omitempty"`
	CreatedAt    time.Time            `json:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt"`
}

// New opens an empty create-mode draft.
func New(now time.Time) Draft {
	return Draft{
		ID:        uuid.NewString(),
		Items:     lineitems.Empty(),
		State:     enums.DraftStateEditing,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

// FromOrder opens an edit-mode draft prefilled from a stored order.
func FromOrder(order models.PurchaseOrder, now time.Time) Draft {
	d := New(now)
	d.OrderID = order.ID
	d.Fields = Fields{
		CustomerID:           order.CustomerID,
		CustomerName:         order.CustomerName,
		OrderDate:            models.FormatDate(order.OrderDate),
		ExpectedDeliveryDate: models.FormatDate(order.ExpectedDeliveryDate),
		PaymentMethod:        order.PaymentMethod,
		SpecialInstructions:  order.SpecialInstructions,
		BillingAddress:       order.BillingAddress,
		ShippingAddress:      order.ShippingAddress,
	}
	if order.Location != nil {
		d.Fields.Latitude = strconv.FormatFloat(order.Location.Latitude, 'f', -1, 64)
		d.Fields.Longitude = strconv.FormatFloat(order.Location.Longitude, 'f', -1, 64)
	}
	d.Items = lineitems.FromOrder(order.Products)
	return d
}

func (d Draft) Mode() string {
	if d.OrderID.IsZero() {
		return ModeCreate
	}
	return ModeEdit
}

// Reset returns the empty initial state for the same session.
func (d Draft) Reset(now time.Time) Draft {
	next := New(now)
	next.ID = d.ID
	next.CreatedAt = d.CreatedAt
	return next
}

func (d Draft) editable() error {
	switch d.State {
	case enums.DraftStateEditing:
		return nil
	case enums.DraftStateSubmitting:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order is being submitted").
			WithDetails(map[string]any{"state": d.State})
	default:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order was already submitted").
			WithDetails(map[string]any{"state": d.State})
	}
}

func (d Draft) touched(now time.Time) Draft {
	d.UpdatedAt = now.UTC()
	return d
}

func (d Draft) UpdateFields(p FieldsPatch, now time.Time) (Draft, error) {
	if err := d.editable(); err != nil {
		return d, err
	}
	d.Fields = d.Fields.apply(p)
	return d.touched(now), nil
}

func (d Draft) OpenPicker(now time.Time) (Draft, error) {
	if err := d.editable(); err != nil {
		return d, err
	}
	d.PickerOpen = true
	return d.touched(now), nil
}

func (d Draft) ClosePicker(now time.Time) Draft {
	d.PickerOpen = false
	return d.touched(now)
}

// WithCatalog records the latest picker search results.
func (d Draft) WithCatalog(query string, products []models.Product, now time.Time) Draft {
	d.CatalogQuery = query
	d.Catalog = products
	return d.touched(now)
}

// CatalogProduct finds a product by key among the latest picker results.
func (d Draft) CatalogProduct(key string) (models.Product, bool) {
	for _, p := range d.Catalog {
		if lineitems.KeyFor(p) == key {
			return p, true
		}
	}
	return models.Product{}, false
}

// Select adds a product to the order and dismisses the picker.
func (d Draft) Select(p models.Product, now time.Time) (Draft, error) {
	if err := d.editable(); err != nil {
		return d, err
	}
	d.Items = d.Items.AddOrMerge(p)
	d.PickerOpen = false
	return d.touched(now), nil
}

func (d Draft) SetQuantity(key, raw string, now time.Time) (Draft, error) {
	if err := d.editable(); err != nil {
		return d, err
	}
	items, err := d.Items.UpdateQuantity(key, raw)
	if err != nil {
		return d, err
	}
	d.Items = items
	return d.touched(now), nil
}

func (d Draft) RemoveItem(key string, now time.Time) (Draft, error) {
	if err := d.editable(); err != nil {
		return d, err
	}
	items, removed := d.Items.Remove(key)
	if !removed {
		return d, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("no line item for %q", key))
	}
	d.Items = items
	return d.touched(now), nil
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
