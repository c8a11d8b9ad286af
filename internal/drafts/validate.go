package drafts

import (
	"fmt"
	"strconv"
	"time"

	"github.com/angelmondragon/orderdesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
	"github.com/angelmondragon/orderdesk/pkg/models"
)

type requiredField struct {
	name  string
	value func(Fields) string
}

// checked in this order; the first empty one is reported
var requiredFields = []requiredField{
	{"customerId", func(f Fields) string { return f.CustomerID }},
	{"customerName", func(f Fields) string { return f.CustomerName }},
	{"orderDate", func(f Fields) string { return f.OrderDate }},
	{"expectedDeliveryDate", func(f Fields) string { return f.ExpectedDeliveryDate }},
	{"paymentMethod", func(f Fields) string { return f.PaymentMethod }},
	{"billingAddress", func(f Fields) string { return f.BillingAddress }},
	{"shippingAddress", func(f Fields) string { return f.ShippingAddress }},
	{"latitude", func(f Fields) string { return f.Latitude }},
	{"longitude", func(f Fields) string { return f.Longitude }},
}

func fieldError(field, message string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(map[string]any{"field": field})
}

// Validate reports the first missing required field, then any malformed date or
// coordinate. The draft is never modified.
func Validate(d Draft) error {
	for _, rf := range requiredFields {
		if trimmed(rf.value(d.Fields)) == "" {
			return fieldError(rf.name, fmt.Sprintf("%s is required", rf.name))
		}
	}
	for _, f := range []struct{ name, value string }{
		{"orderDate", d.Fields.OrderDate},
		{"expectedDeliveryDate", d.Fields.ExpectedDeliveryDate},
	} {
		if _, err := time.Parse(models.DateLayout, trimmed(f.value)); err != nil {
			return fieldError(f.name, fmt.Sprintf("%s must be a YYYY-MM-DD date", f.name))
		}
	}
	if _, err := parseCoordinate(d.Fields.Latitude, 90); err != nil {
		return fieldError("latitude", "latitude "+err.Error())
	}
	if _, err := parseCoordinate(d.Fields.Longitude, 180); err != nil {
		return fieldError("longitude", "longitude "+err.Error())
	}
	return nil
}

func parseCoordinate(raw string, limit float64) (float64, error) {
	v, err := strconv.ParseFloat(trimmed(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("must be a number")
	}
	if v < -limit || v > limit {
		return 0, fmt.Errorf("must be between -%g and %g", limit, limit)
	}
	return v, nil
}

// Payload serializes a valid draft into the record store's order shape.
func Payload(d Draft) (models.PurchaseOrder, error) {
	if err := Validate(d); err != nil {
		return models.PurchaseOrder{}, err
	}
	lat, _ := parseCoordinate(d.Fields.Latitude, 90)
	lng, _ := parseCoordinate(d.Fields.Longitude, 180)
	return models.PurchaseOrder{
		ID:                   d.OrderID,
		CustomerID:           trimmed(d.Fields.CustomerID),
		CustomerName:         trimmed(d.Fields.CustomerName),
		OrderDate:            trimmed(d.Fields.OrderDate),
		ExpectedDeliveryDate: trimmed(d.Fields.ExpectedDeliveryDate),
		PaymentMethod:        trimmed(d.Fields.PaymentMethod),
		SpecialInstructions:  d.Fields.SpecialInstructions,
		BillingAddress:       d.Fields.BillingAddress,
		ShippingAddress:      d.Fields.ShippingAddress,
		Products:             d.Items.OrderProducts(),
		Location:             &models.Location{Latitude: lat, Longitude: lng},
	}, nil
}

// BeginSubmit moves a valid draft to Submitting and returns the payload to send.
// A draft already Submitting is rejected so the same order is not sent twice.
func BeginSubmit(d Draft, now time.Time) (Draft, models.PurchaseOrder, error) {
	if err := d.editable(); err != nil {
		return d, models.PurchaseOrder{}, err
	}
	payload, err := Payload(d)
	if err != nil {
		return d, models.PurchaseOrder{}, err
	}
	d.State = enums.DraftStateSubmitting
	return d.touched(now), payload, nil
}

// CompleteSubmit settles a Submitting draft. On failure the draft returns to Editing
// with its contents intact. On success a create draft resets to its empty initial
// state; an edit draft becomes Submitted.
func CompleteSubmit(d Draft, sendErr error, now time.Time) Draft {
	if d.State != enums.DraftStateSubmitting {
		return d
	}
	if sendErr != nil {
		d.State = enums.DraftStateEditing
		return d.touched(now)
	}
	if d.Mode() == ModeEdit {
		d.State = enums.DraftStateSubmitted
		d.PickerOpen = false
		return d.touched(now)
	}
	return d.Reset(now)
}
