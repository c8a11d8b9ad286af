package enums

import "fmt"

// ProductStatus is the availability flag carried by a product master record.
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "Active"
	ProductStatusInactive ProductStatus = "Inactive"
)

var validProductStatuses = []ProductStatus{
	ProductStatusActive,
	ProductStatusInactive,
}

// String implements fmt.Stringer.
func (s ProductStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ProductStatus.
func (s ProductStatus) IsValid() bool {
	for _, candidate := range validProductStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseProductStatus converts raw input into a ProductStatus.
func ParseProductStatus(value string) (ProductStatus, error) {
	for _, candidate := range validProductStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product status %q", value)
}

// DiscountAllowed records whether a product may be discounted.
type DiscountAllowed string

const (
	DiscountAllowedYes DiscountAllowed = "Yes"
	DiscountAllowedNo  DiscountAllowed = "No"
)

var validDiscountAllowed = []DiscountAllowed{
	DiscountAllowedYes,
	DiscountAllowedNo,
}

// String implements fmt.Stringer.
func (d DiscountAllowed) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DiscountAllowed.
func (d DiscountAllowed) IsValid() bool {
	for _, candidate := range validDiscountAllowed {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDiscountAllowed converts raw input into a DiscountAllowed.
func ParseDiscountAllowed(value string) (DiscountAllowed, error) {
	for _, candidate := range validDiscountAllowed {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount allowed %q", value)
}
