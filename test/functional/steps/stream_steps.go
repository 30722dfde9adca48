package steps

import (
	"time"
)

func (fc *FeatureContext) iOpenTheMeasurementStreamOf(supplierID string) error {
	conn, err := fc.apiDriver.StreamMeasurements(supplierID)
	if err != nil {
		return err
	}
	fc.wsConn = conn
	return nil
}

func (fc *FeatureContext) theStreamShouldDeliverTheRecordedMeasurement() error {
	fc.require.NotNil(fc.wsConn, "websocket connection not established")
	fc.require.NotNil(fc.recorded, "no measurement was recorded")

	fc.require.NoError(fc.wsConn.SetReadDeadline(time.Now().Add(5 * time.Second)))
	var msg StreamMessage
	fc.require.NoError(fc.wsConn.ReadJSON(&msg))
	fc.require.Equal("measurement_recorded", msg.Type)
	fc.require.Equal(*fc.recorded, msg.Measurement)
	return nil
}
