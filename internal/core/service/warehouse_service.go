package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/storefront/logistics/internal/carrier/delhivery"
	"github.com/storefront/logistics/internal/core/domain"
	"github.com/storefront/logistics/internal/core/ports"
)

var _ ports.WarehouseService = (*WarehouseService)(nil)

// WarehouseService registers pickup locations at the carrier and mirrors them locally.
type WarehouseService struct {
	*WarehouseResolver
	repo    ports.WarehouseRepository
	carrier ports.Carrier
	demo    bool
	log     zerolog.Logger
}

// NewWarehouseService wraps resolver with registration and contact updates.
// demo allows local-only registration when the carrier is not configured.
func NewWarehouseService(resolver *WarehouseResolver, repo ports.WarehouseRepository, carrier ports.Carrier, demo bool, log zerolog.Logger) *WarehouseService {
	return &WarehouseService{
		WarehouseResolver: resolver,
		repo:              repo,
		carrier:           carrier,
		demo:              demo,
		log:               log,
	}
}

// Register creates the warehouse at the carrier, then stores it locally.
func (s *WarehouseService) Register(ctx context.Context, in ports.RegisterWarehouseInput) (*domain.Warehouse, error) {
	if err := validateRegistration(in); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindByName(ctx, in.Name); err == nil {
		return nil, domain.Errorf(domain.KindWarehouseExists, "warehouse %q already exists", in.Name).WithField("name")
	} else if !errors.Is(err, domain.ErrWarehouseNotFound) {
		return nil, fmt.Errorf("register warehouse: %w", err)
	}

	country := in.Country
	if country == "" {
		country = "India"
	}
	w := &domain.Warehouse{
		Name:          in.Name,
		Phone:         in.Phone,
		Email:         in.Email,
		Address:       in.Address,
		City:          in.City,
		Pin:           in.Pin,
		State:         in.State,
		Country:       country,
		Status:        domain.WarehouseActive,
		IsDefault:     in.IsDefault,
		ReturnAddress: firstNonEmpty(in.ReturnAddress, in.Address),
		ReturnPin:     firstNonEmpty(in.ReturnPin, in.Pin),
		ReturnCity:    firstNonEmpty(in.ReturnCity, in.City),
		ReturnState:   firstNonEmpty(in.ReturnState, in.State),
	}

	if s.carrier.Configured() {
		res, err := s.carrier.RegisterWarehouse(ctx, delhivery.WarehouseRegistration{
			Name:          w.Name,
			Email:         w.Email,
			Phone:         w.Phone,
			Address:       w.Address,
			City:          w.City,
			Country:       w.Country,
			Pin:           w.Pin,
			ReturnAddress: w.ReturnAddress,
			ReturnPin:     w.ReturnPin,
			ReturnCity:    w.ReturnCity,
			ReturnState:   w.ReturnState,
			ReturnCountry: firstNonEmpty(in.ReturnCountry, country),
		})
		if err != nil {
			return nil, fmt.Errorf("register warehouse at carrier: %w", err)
		}
		if !res.Success {
			return nil, domain.Errorf(domain.KindCarrierRejected, "carrier rejected warehouse %q: %s", w.Name, res.Message).
				WithField("name").
				WithSuggestion("warehouse names must be unique at the carrier")
		}
	} else if !s.demo {
		return nil, domain.NewError(domain.KindCarrierNotConfigured, "carrier credentials are not configured").
			WithCause(delhivery.ErrNotConfigured)
	} else {
		w.Status = domain.WarehousePending
	}

	now := time.Now().UTC()
	w.CreatedAt, w.UpdatedAt = now, now
	if err := s.repo.Create(ctx, w); err != nil {
		return nil, fmt.Errorf("store warehouse: %w", err)
	}
	w.Source = domain.SourceDatabase

	s.log.Info().Str("warehouse", w.Name).Str("pin", w.Pin).Str("status", w.Status).Msg("warehouse registered")
	return w, nil
}

// Update changes address, pin or phone. The name is the carrier's key and is
// never changed.
func (s *WarehouseService) Update(ctx context.Context, name string, upd domain.WarehouseContactUpdate) (*domain.Warehouse, error) {
	if upd.Empty() {
		return nil, domain.NewError(domain.KindValidation, "nothing to update").
			WithSuggestion("only address, pin and phone can be changed")
	}
	if upd.Pin != "" && !validPincode(upd.Pin) {
		return nil, domain.Errorf(domain.KindValidation, "invalid pincode %q", upd.Pin).WithField("pin")
	}
	if _, err := s.repo.FindByName(ctx, name); err != nil {
		return nil, err
	}

	if s.carrier.Configured() {
		res, err := s.carrier.UpdateWarehouse(ctx, name, upd)
		if err != nil {
			return nil, fmt.Errorf("update warehouse at carrier: %w", err)
		}
		if !res.Success {
			return nil, domain.Errorf(domain.KindCarrierRejected, "carrier rejected update of %q: %s", name, res.Message)
		}
	} else if !s.demo {
		return nil, domain.NewError(domain.KindCarrierNotConfigured, "carrier credentials are not configured").
			WithCause(delhivery.ErrNotConfigured)
	}

	if err := s.repo.UpdateContact(ctx, name, upd); err != nil {
		return nil, fmt.Errorf("update warehouse: %w", err)
	}
	w, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	w.Source = domain.SourceDatabase
	s.log.Info().Str("warehouse", name).Msg("warehouse contact updated")
	return w, nil
}

func validateRegistration(in ports.RegisterWarehouseInput) error {
	required := []struct{ field, value string }{
		{"name", in.Name},
		{"phone", in.Phone},
		{"address", in.Address},
		{"city", in.City},
		{"pin", in.Pin},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return domain.Errorf(domain.KindValidation, "%s is required", r.field).WithField(r.field)
		}
	}
	if !validPincode(in.Pin) {
		return domain.Errorf(domain.KindValidation, "invalid pincode %q", in.Pin).WithField("pin")
	}
	return nil
}

// validPincode accepts six-digit Indian postal codes.
func validPincode(pin string) bool {
	if len(pin) != 6 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
