package enums

import "fmt"

// RecordKind names a master record collection held by the record store.
type RecordKind string

const (
	RecordKindCustomers      RecordKind = "customers"
	RecordKindProducts       RecordKind = "products"
	RecordKindUsers          RecordKind = "users"
	RecordKindPurchaseOrders RecordKind = "purchase-orders"
)

var validRecordKinds = []RecordKind{
	RecordKindCustomers,
	RecordKindProducts,
	RecordKindUsers,
	RecordKindPurchaseOrders,
}

// String implements fmt.Stringer.
func (k RecordKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known RecordKind.
func (k RecordKind) IsValid() bool {
	for _, candidate := range validRecordKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseRecordKind converts raw input into a RecordKind.
func ParseRecordKind(value string) (RecordKind, error) {
	for _, candidate := range validRecordKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid record kind %q", value)
}

// RecordState is the list controller's load state.
type RecordState string

const (
	RecordStateLoading RecordState = "loading"
	RecordStateReady   RecordState = "ready"
)
