package models

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/orderdesk/pkg/enums"
)

type Product struct {
	ID                RecordID              `json:"id,omitempty"`
	ProductID         string                `json:"productId" validate:"required"`
	ProductName       string                `json:"productName" validate:"required"`
	Description       string                `json:"description" validate:"required"`
	UnitOfMeasurement string                `json:"unitOfMeasurement" validate:"required"`
	Price             *decimal.Decimal      `json:"price" validate:"required,gte=0"`
	Currency          string                `json:"currency" validate:"required"`
	ProductCategory   string                `json:"productCategory" validate:"required"`
	ExpiryDate        string                `json:"expiryDate,omitempty"`
	BatchNumber       string                `json:"batchNumber,omitempty"`
	Status            enums.ProductStatus   `json:"status,omitempty" validate:"omitempty,oneof=Active Inactive"`
	DiscountAllowed   enums.DiscountAllowed `json:"discountAllowed,omitempty" validate:"omitempty,oneof=Yes No"`
}

// ApplyDefaults fills the values a new product form starts with.
func (p *Product) ApplyDefaults() {
	if p.Status == "" {
		p.Status = enums.ProductStatusActive
	}
	if p.DiscountAllowed == "" {
		p.DiscountAllowed = enums.DiscountAllowedNo
	}
}

type Customer struct {
	ID             RecordID `json:"id,omitempty"`
	CustomerID     string   `json:"customerId" validate:"required"`
	Name           string   `json:"name" validate:"required"`
	Address        string   `json:"address" validate:"required"`
	City           string   `json:"city" validate:"required"`
	State          string   `json:"state" validate:"required"`
	Country        string   `json:"country" validate:"required"`
	PinNumber      string   `json:"pinNumber" validate:"required"`
	MobileNumber   string   `json:"mobileNumber" validate:"required"`
	LandLineNumber string   `json:"landLineNumber,omitempty"`
	EmailID        string   `json:"emailId" validate:"required"`
	SocialHandle   string   `json:"socialHandle,omitempty"`
	ShipToAddress  string   `json:"shipToAddress,omitempty"`
	BillingAddress string   `json:"billingAddress,omitempty"`
	BankDetails    string   `json:"bankDetails,omitempty"`
	PaymentTerms   string   `json:"paymentTerms,omitempty"`
	GSTNumber      string   `json:"gstNumber,omitempty"`
}

type User struct {
	ID       RecordID `json:"id,omitempty"`
	Name     string   `json:"name" validate:"required"`
	UserID   string   `json:"user_id" validate:"required"`
	Password string   `json:"password,omitempty"`
	EmailID  string   `json:"emailid" validate:"required"`
	MobileNo string   `json:"mobile_no" validate:"required"`
	Role     string   `json:"role,omitempty"`
	Status   string   `json:"status" validate:"required"`
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type OrderProduct struct {
	ProductID   string   `json:"productId,omitempty"`
	ProductName string   `json:"productName"`
	Quantity    Quantity `json:"quantity"`
}

type PurchaseOrder struct {
	ID                   RecordID       `json:"id,omitempty"`
	CustomerID           string         `json:"customerId"`
	CustomerName         string         `json:"customerName"`
	OrderDate            string         `json:"orderDate"`
	ExpectedDeliveryDate string         `json:"expectedDeliveryDate"`
	PaymentMethod        string         `json:"paymentMethod"`
	SpecialInstructions  string         `json:"specialInstructions,omitempty"`
	BillingAddress       string         `json:"billingAddress"`
	ShippingAddress      string         `json:"shippingAddress"`
	Products             []OrderProduct `json:"products"`
	Location             *Location      `json:"location,omitempty"`
}
