package handler

import "time"

// --- Request types ---

type dimensionsRequest struct {
	LengthCm float64 `json:"length_cm" validate:"gte=0"`
	WidthCm  float64 `json:"width_cm"  validate:"gte=0"`
	HeightCm float64 `json:"height_cm" validate:"gte=0"`
}

type packageRequest struct {
	WeightGrams float64           `json:"weight_grams" validate:"gt=0"`
	Dimensions  dimensionsRequest `json:"dimensions"`
	Description string            `json:"description"`
}

type customerRequest struct {
	Name    string `json:"name"    validate:"required"`
	Phone   string `json:"phone"   validate:"required"`
	Email   string `json:"email"   validate:"omitempty,email"`
	Address string `json:"address" validate:"required"`
	Pincode string `json:"pincode" validate:"required,len=6,numeric"`
	City    string `json:"city"`
	State   string `json:"state"`
}

type createShipmentRequest struct {
	OrderID        string           `json:"order_id"        validate:"required"`
	Kind           string           `json:"kind"            validate:"omitempty,oneof=FORWARD MPS REVERSE REPLACEMENT"`
	PickupLocation string           `json:"pickup_location"`
	PaymentMode    string           `json:"payment_mode"    validate:"omitempty,oneof=COD Prepaid Pickup REPL"`
	CODAmount      *float64         `json:"cod_amount"      validate:"omitempty,gte=0"`
	Packages       []packageRequest `json:"packages"        validate:"max=50,dive"`
	ShippingMode   string           `json:"shipping_mode"   validate:"omitempty,oneof=Surface Express"`
	Fragile        bool             `json:"fragile"`
	SellerInvoice  string           `json:"seller_invoice"`
	HSNCode        string           `json:"hsn_code"`
	Customer       *customerRequest `json:"customer"`
	SkipPickup     bool             `json:"skip_pickup"`
}

type updateShipmentRequest struct {
	CustomerName       *string  `json:"customer_name"`
	Phone              *string  `json:"phone"`
	Address            *string  `json:"address"`
	PaymentMode        *string  `json:"payment_mode"        validate:"omitempty,oneof=COD Prepaid Pickup REPL"`
	CODAmount          *float64 `json:"cod_amount"          validate:"omitempty,gte=0"`
	ProductDescription *string  `json:"product_description"`
	WeightGrams        *float64 `json:"weight_grams"        validate:"omitempty,gt=0"`
	LengthCm           *float64 `json:"length_cm"           validate:"omitempty,gt=0"`
	WidthCm            *float64 `json:"width_cm"            validate:"omitempty,gt=0"`
	HeightCm           *float64 `json:"height_cm"           validate:"omitempty,gt=0"`
}

type statusUpdateRequest struct {
	Status    string    `json:"status"    validate:"required"`
	Notes     string    `json:"notes"`
	Timestamp time.Time `json:"timestamp"`
}

type ewaybillRequest struct {
	InvoiceNumber  string `json:"dcn"`
	EwaybillNumber string `json:"ewbn" validate:"required"`
}

type pickupRequest struct {
	PickupLocation string `json:"pickup_location"`
	PickupDate     string `json:"pickup_date"  validate:"omitempty,datetime=2006-01-02"`
	PickupTime     string `json:"pickup_time"  validate:"omitempty,datetime=15:04:05"`
	PackageCount   int    `json:"package_count" validate:"gte=0"`
}

// --- Response types ---

type labelResponse struct {
	Waybill  string           `json:"waybill"`
	Links    []string         `json:"links,omitempty"`
	Packages []map[string]any `json:"packages,omitempty"`
}
