package domain

import "time"

// Measurement is a single reading captured by a measurement supplier.
type Measurement struct {
	SupplierID string    `json:"supplierId"`
	Value      any       `json:"value"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewMeasurement(supplierID string, value any, timestamp time.Time) Measurement {
	return Measurement{
		SupplierID: supplierID,
		Value:      value,
		Timestamp:  timestamp,
	}
}
