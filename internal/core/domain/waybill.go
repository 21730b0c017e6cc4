package domain

import "time"

// WaybillStatus is the pool state of a pre-generated waybill.
type WaybillStatus string

const (
	WaybillGenerated WaybillStatus = "GENERATED"
	WaybillReserved  WaybillStatus = "RESERVED"
	WaybillUsed      WaybillStatus = "USED"
	WaybillCancelled WaybillStatus = "CANCELLED"
)

// Waybill generation channels.
const (
	WaybillSourceBulk     = "bulk"
	WaybillSourceSingle   = "single"
	WaybillSourceOnDemand = "on_demand"
	WaybillSourceDemo     = "demo"
	WaybillSourceManual   = "manual"
)

var waybillTransitions = map[WaybillStatus][]WaybillStatus{
	WaybillGenerated: {WaybillReserved, WaybillUsed, WaybillCancelled},
	WaybillReserved:  {WaybillUsed, WaybillCancelled},
	WaybillUsed:      {WaybillCancelled},
}

// CanTransitionTo reports whether a waybill may move from s to next.
func (s WaybillStatus) CanTransitionTo(next WaybillStatus) bool {
	for _, allowed := range waybillTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Waybill is one identifier in the local pool.
type Waybill struct {
	Number      string        `json:"waybill" bson:"waybill"`
	Status      WaybillStatus `json:"status" bson:"status"`
	Source      string        `json:"source" bson:"source"`
	BatchID     string        `json:"batch_id" bson:"batch_id"`
	GeneratedAt time.Time     `json:"generated_at" bson:"generated_at"`
	ReservedBy  string        `json:"reserved_by,omitempty" bson:"reserved_by,omitempty"`
	ReservedAt  *time.Time    `json:"reserved_at,omitempty" bson:"reserved_at,omitempty"`
	OrderID     string        `json:"order_id,omitempty" bson:"order_id,omitempty"`
	ShipmentID  string        `json:"shipment_id,omitempty" bson:"shipment_id,omitempty"`
	UsedAt      *time.Time    `json:"used_at,omitempty" bson:"used_at,omitempty"`
	CancelledAt *time.Time    `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" bson:"updated_at"`
}

// WaybillStats summarises the pool.
type WaybillStats struct {
	Total    int64                   `json:"total"`
	ByStatus map[WaybillStatus]int64 `json:"by_status"`
	BySource map[string]int64        `json:"by_source"`
}

// Available is the count of waybills that can still be reserved.
func (s WaybillStats) Available() int64 {
	return s.ByStatus[WaybillGenerated]
}
