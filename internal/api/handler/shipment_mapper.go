package handler

import (
	"github.com/storefront/logistics/internal/core/domain"
	"github.com/storefront/logistics/internal/core/ports"
)

// toCreateInput maps the HTTP request to the service DTO.
func toCreateInput(r createShipmentRequest) ports.CreateShipmentInput {
	kind, _ := domain.ParseShipmentKind(r.Kind)
	in := ports.CreateShipmentInput{
		OrderID:        r.OrderID,
		Kind:           kind,
		PickupLocation: r.PickupLocation,
		PaymentMode:    r.PaymentMode,
		CODAmount:      r.CODAmount,
		ShippingMode:   r.ShippingMode,
		Fragile:        r.Fragile,
		SellerInvoice:  r.SellerInvoice,
		HSNCode:        r.HSNCode,
		SkipPickup:     r.SkipPickup,
	}
	for _, p := range r.Packages {
		in.Packages = append(in.Packages, ports.PackageInput{
			WeightGrams: p.WeightGrams,
			Dimensions: domain.Dimensions{
				LengthCm: p.Dimensions.LengthCm,
				WidthCm:  p.Dimensions.WidthCm,
				HeightCm: p.Dimensions.HeightCm,
			},
			Description: p.Description,
		})
	}
	if r.Customer != nil {
		in.Customer = &domain.CustomerSnapshot{
			Name:    r.Customer.Name,
			Phone:   r.Customer.Phone,
			Email:   r.Customer.Email,
			Address: r.Customer.Address,
			Pincode: r.Customer.Pincode,
			City:    r.Customer.City,
			State:   r.Customer.State,
		}
	}
	return in
}

func toEditFields(r updateShipmentRequest) ports.ShipmentEditFields {
	return ports.ShipmentEditFields{
		CustomerName:       r.CustomerName,
		Phone:              r.Phone,
		Address:            r.Address,
		PaymentMode:        r.PaymentMode,
		CODAmount:          r.CODAmount,
		ProductDescription: r.ProductDescription,
		WeightGrams:        r.WeightGrams,
		LengthCm:           r.LengthCm,
		WidthCm:            r.WidthCm,
		HeightCm:           r.HeightCm,
	}
}
