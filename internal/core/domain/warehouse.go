package domain

import "time"

// WarehouseSource tells callers where a resolved warehouse came from.
type WarehouseSource string

const (
	SourceDatabase WarehouseSource = "database"
	SourceCarrier  WarehouseSource = "carrier"
	SourceFallback WarehouseSource = "fallback"
	SourceDefault  WarehouseSource = "default"
)

// IsLive reports whether the record reflects real data rather than a synthesised placeholder.
func (s WarehouseSource) IsLive() bool {
	return s == SourceDatabase || s == SourceCarrier
}

const (
	WarehouseActive   = "active"
	WarehouseInactive = "inactive"
	WarehousePending  = "pending"
)

// BusinessHours is the carrier's pickup window for a warehouse.
type BusinessHours struct {
	Start string `json:"start" bson:"start"`
	End   string `json:"end" bson:"end"`
}

// Warehouse is a registered pickup and return location. Name is the carrier's
// business key: case-sensitive and immutable after registration.
type Warehouse struct {
	ID            string          `json:"id,omitempty" bson:"_id,omitempty"`
	Name          string          `json:"name" bson:"name"`
	Phone         string          `json:"phone" bson:"phone"`
	Email         string          `json:"email,omitempty" bson:"email,omitempty"`
	Address       string          `json:"address" bson:"address"`
	City          string          `json:"city" bson:"city"`
	Pin           string          `json:"pin" bson:"pin"`
	State         string          `json:"state" bson:"state"`
	Country       string          `json:"country" bson:"country"`
	Status        string          `json:"status" bson:"status"`
	IsDefault     bool            `json:"is_default" bson:"is_default"`
	ReturnAddress string          `json:"return_address,omitempty" bson:"return_address,omitempty"`
	ReturnPin     string          `json:"return_pin,omitempty" bson:"return_pin,omitempty"`
	ReturnCity    string          `json:"return_city,omitempty" bson:"return_city,omitempty"`
	ReturnState   string          `json:"return_state,omitempty" bson:"return_state,omitempty"`
	BusinessDays  []string        `json:"business_days,omitempty" bson:"business_days,omitempty"`
	BusinessHours *BusinessHours  `json:"business_hours,omitempty" bson:"business_hours,omitempty"`
	VehicleType   string          `json:"vehicle_type,omitempty" bson:"vehicle_type,omitempty"`
	Source        WarehouseSource `json:"source" bson:"-"`
	CreatedAt     time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" bson:"updated_at"`
}

// Snapshot copies the fields a shipment keeps about its pickup location.
func (w *Warehouse) Snapshot() WarehouseSnapshot {
	return WarehouseSnapshot{
		Name:    w.Name,
		Address: w.Address,
		City:    w.City,
		State:   w.State,
		Pincode: w.Pin,
		Phone:   w.Phone,
	}
}

// WarehouseContactUpdate holds the only fields the carrier lets us change.
type WarehouseContactUpdate struct {
	Address string `json:"address"`
	Pin     string `json:"pin"`
	Phone   string `json:"phone"`
}

// Empty reports whether the update carries no changes.
func (u WarehouseContactUpdate) Empty() bool {
	return u.Address == "" && u.Pin == "" && u.Phone == ""
}
