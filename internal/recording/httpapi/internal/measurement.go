package internal

import (
	"measurements-server/internal/infra/utils"
	"measurements-server/internal/recording/domain"
)

type MeasurementResponse struct {
	SupplierID string     `json:"supplierId"`
	Value      any        `json:"value"`
	Timestamp  utils.Time `json:"timestamp"`
}

func ToMeasurementResponse(measurement domain.Measurement) MeasurementResponse {
	return MeasurementResponse{
		SupplierID: measurement.SupplierID,
		Value:      measurement.Value,
		Timestamp:  utils.Time{Time: measurement.Timestamp},
	}
}

func ToMeasurementResponses(measurements []domain.Measurement) []MeasurementResponse {
	responses := make([]MeasurementResponse, len(measurements))
	for i, measurement := range measurements {
		responses[i] = ToMeasurementResponse(measurement)
	}
	return responses
}

// StreamMessage is pushed to websocket clients for every recorded measurement.
type StreamMessage struct {
	Type        string              `json:"type"`
	Measurement MeasurementResponse `json:"measurement"`
}
