package models

import (
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

var orderDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	DateLayout,
}

// FormatDate renders a stored order date as YYYY-MM-DD in UTC. Values that do not parse
// are returned as given.
func FormatDate(raw string) string {
	trimmed := strings.TrimSpace(raw)
	for _, layout := range orderDateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.UTC().Format(DateLayout)
		}
	}
	return raw
}

// ProductSummary renders the order's products for the list view.
func ProductSummary(products []OrderProduct) string {
	if len(products) == 0 {
		return "N/A"
	}
	parts := make([]string, 0, len(products))
	for _, p := range products {
		parts = append(parts, fmt.Sprintf("%s (Quantity: %d)", p.ProductName, p.Quantity))
	}
	return strings.Join(parts, ", ")
}

// OrderView is the list row rendered for a purchase order.
type OrderView struct {
	PurchaseOrder
	OrderDateDisplay            string `json:"orderDateDisplay"`
	ExpectedDeliveryDateDisplay string `json:"expectedDeliveryDateDisplay"`
	ProductSummary              string `json:"productSummary"`
}

func NewOrderView(order PurchaseOrder) OrderView {
	return OrderView{
		PurchaseOrder:               order,
		OrderDateDisplay:            FormatDate(order.OrderDate),
		ExpectedDeliveryDateDisplay: FormatDate(order.ExpectedDeliveryDate),
		ProductSummary:              ProductSummary(order.Products),
	}
}
