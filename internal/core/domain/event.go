package domain

import "time"

// ScanEvent is a status update for one waybill pushed by the carrier or an operator.
type ScanEvent struct {
	Waybill   string
	Status    string
	Location  string
	Remarks   string
	Timestamp time.Time
	Source    string
}
