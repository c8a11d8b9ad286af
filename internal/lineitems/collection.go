package lineitems

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
	"github.com/angelmondragon/orderdesk/pkg/models"
)

const defaultQuantity = 1

// Item pairs a product with a quantity inside one order.
type Item struct {
	Key         string           `json:"key"`
	ProductID   string           `json:"productId,omitempty"`
	ProductName string           `json:"productName"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Currency    string           `json:"currency,omitempty"`
	Quantity    int              `json:"quantity"`
}

// Subtotal is price times quantity, or false when the item carries no price.
func (i Item) Subtotal() (decimal.Decimal, bool) {
	if i.Price == nil {
		return decimal.Zero, false
	}
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity))), true
}

// Collection is an ordered set of line items keyed by product. Values are immutable;
// every transition returns a new Collection and leaves the receiver untouched.
type Collection struct {
	items []Item
}

// KeyFor returns the product's identity, or its name when it has none.
func KeyFor(p models.Product) string {
	if id := strings.TrimSpace(p.ProductID); id != "" {
		return id
	}
	return strings.TrimSpace(p.ProductName)
}

func Empty() Collection {
	return Collection{}
}

// FromOrder rebuilds a collection from a stored order, folding duplicate keys into the
// first occurrence.
func FromOrder(products []models.OrderProduct) Collection {
	var c Collection
	for _, p := range products {
		key := strings.TrimSpace(p.ProductID)
		if key == "" {
			key = strings.TrimSpace(p.ProductName)
		}
		if key == "" || c.index(key) >= 0 {
			continue
		}
		qty := int(p.Quantity)
		if qty <= 0 {
			qty = defaultQuantity
		}
		c.items = append(c.items, Item{Key: key, ProductID: p.ProductID, ProductName: p.ProductName, Quantity: qty})
	}
	return c
}

func (c Collection) Len() int {
	return len(c.items)
}

// Items returns a copy of the entries in selection order.
func (c Collection) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c Collection) Get(key string) (Item, bool) {
	if i := c.index(key); i >= 0 {
		return c.items[i], true
	}
	return Item{}, false
}

func (c Collection) index(key string) int {
	for i, item := range c.items {
		if item.Key == key {
			return i
		}
	}
	return -1
}

// unidentified finds a line keyed by name only that names the same product as p.
func (c Collection) unidentified(p models.Product) int {
	name := strings.TrimSpace(p.ProductName)
	if strings.TrimSpace(p.ProductID) == "" || name == "" {
		return -1
	}
	for i, item := range c.items {
		if strings.TrimSpace(item.ProductID) == "" && strings.TrimSpace(item.ProductName) == name {
			return i
		}
	}
	return -1
}

func (c Collection) clone() Collection {
	return Collection{items: c.Items()}
}

// AddOrMerge selects a product. A product already present keeps its quantity, normalized
// to a positive integer; it is not incremented. A new product is appended with quantity 1.
func (c Collection) AddOrMerge(p models.Product) Collection {
	key := KeyFor(p)
	next := c.clone()
	if key == "" {
		return next
	}
	i := next.index(key)
	if i < 0 {
		i = next.unidentified(p)
		if i >= 0 {
			// a line loaded from an order without ids takes on the catalog identity
			next.items[i].Key = key
			next.items[i].ProductID = strings.TrimSpace(p.ProductID)
			next.items[i].Price = p.Price
			next.items[i].Currency = p.Currency
		}
	}
	if i >= 0 {
		if next.items[i].Quantity <= 0 {
			next.items[i].Quantity = defaultQuantity
		}
		return next
	}
	next.items = append(next.items, Item{
		Key:         key,
		ProductID:   p.ProductID,
		ProductName: p.ProductName,
		Price:       p.Price,
		Currency:    p.Currency,
		Quantity:    defaultQuantity,
	})
	return next
}

// ParseQuantity accepts positive base-10 integers only.
func ParseQuantity(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity %q is not a whole number", raw)).
			WithDetails(map[string]any{"field": "quantity"})
	}
	if n <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero").
			WithDetails(map[string]any{"field": "quantity"})
	}
	return n, nil
}

// UpdateQuantity sets the quantity for key from operator text. A rejected update returns
// the receiver unchanged together with the reason.
func (c Collection) UpdateQuantity(key, raw string) (Collection, error) {
	i := c.index(key)
	if i < 0 {
		return c, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("no line item for %q", key))
	}
	qty, err := ParseQuantity(raw)
	if err != nil {
		return c, err
	}
	next := c.clone()
	next.items[i].Quantity = qty
	return next, nil
}

// Remove drops the entry for key. The boolean reports whether anything was removed.
func (c Collection) Remove(key string) (Collection, bool) {
	i := c.index(key)
	if i < 0 {
		return c, false
	}
	next := Collection{items: make([]Item, 0, len(c.items)-1)}
	next.items = append(next.items, c.items[:i]...)
	next.items = append(next.items, c.items[i+1:]...)
	return next, true
}

// OrderProducts renders the collection in the record store's order payload shape.
func (c Collection) OrderProducts() []models.OrderProduct {
	out := make([]models.OrderProduct, 0, len(c.items))
	for _, item := range c.items {
		out = append(out, models.OrderProduct{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    models.Quantity(item.Quantity),
		})
	}
	return out
}

// Total is the summed subtotal for one currency.
type Total struct {
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
	Items    int             `json:"items"`
}

// Totals sums priced items per currency, sorted by currency code. Unpriced items are skipped.
func (c Collection) Totals() []Total {
	byCurrency := map[string]*Total{}
	for _, item := range c.items {
		sub, ok := item.Subtotal()
		if !ok {
			continue
		}
		t, exists := byCurrency[item.Currency]
		if !exists {
			t = &Total{Currency: item.Currency, Amount: decimal.Zero}
			byCurrency[item.Currency] = t
		}
		t.Amount = t.Amount.Add(sub)
		t.Items++
	}
	out := make([]Total, 0, len(byCurrency))
	for _, t := range byCurrency {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}

func (c Collection) MarshalJSON() ([]byte, error) {
	if c.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.items)
}

// UnmarshalJSON restores a persisted collection, dropping duplicate keys and
// normalizing non-positive quantities.
func (c *Collection) UnmarshalJSON(data []byte) error {
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	var out Collection
	for _, item := range items {
		if item.Key == "" || out.index(item.Key) >= 0 {
			continue
		}
		if item.Quantity <= 0 {
			item.Quantity = defaultQuantity
		}
		out.items = append(out.items, item)
	}
	*c = out
	return nil
}
